package policy

import "github.com/microcosm-cc/bluemonday"

var stripPolicy = bluemonday.StrictPolicy()

// StripMarkup removes all HTML markup from text before it is persisted in a
// transaction description.
func StripMarkup(text string) string {
	return stripPolicy.Sanitize(text)
}
