package policy

import (
	"errors"
	"strings"
)

const (
	FundingTypeCard = "card"
	FundingTypeBank = "bank"
)

var (
	ErrUnknownFundingType   = errors.New("unknown funding source type")
	ErrInvalidCardNumber    = errors.New("invalid card number")
	ErrUnknownCardType      = errors.New("unrecognized card type")
	ErrInvalidRoutingNumber = errors.New("invalid routing number")
	ErrMissingBankAccount   = errors.New("bank account number is required")
)

// ValidateCard checks a card number with the Luhn algorithm and returns the
// card brand derived from its prefix.
func ValidateCard(number string) (string, error) {
	number = strings.ReplaceAll(number, " ", "")
	if len(number) < 13 || len(number) > 19 || !isDigits(number) {
		return "", ErrInvalidCardNumber
	}
	if !luhnValid(number) {
		return "", ErrInvalidCardNumber
	}

	cardType := cardTypeFromPrefix(number)
	if cardType == "" {
		return "", ErrUnknownCardType
	}
	return cardType, nil
}

// ValidateRoutingNumber checks a 9-digit ABA routing number using the standard
// weighted checksum.
func ValidateRoutingNumber(number string) bool {
	if len(number) != 9 || !isDigits(number) {
		return false
	}
	if number == "000000000" {
		return false
	}

	sum := 0
	for i := 0; i < 9; i += 3 {
		sum += 3 * int(number[i]-'0')
		sum += 7 * int(number[i+1]-'0')
		sum += int(number[i+2] - '0')
	}
	return sum%10 == 0
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardTypeFromPrefix(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	case strings.HasPrefix(number, "6011"), strings.HasPrefix(number, "65"):
		return "discover"
	}
	return ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
