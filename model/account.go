package model

import "time"

const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"

	AccountStatusActive = "active"
	AccountStatusClosed = "closed"
)

// Account carries a cached balance for fast reads. The true balance is always
// the sum of the account's completed transactions; only the ledger engine may
// write the cached value.
type Account struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	AccountNumber int64     `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Status        string    `json:"status"`
	Balance       float64   `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}
