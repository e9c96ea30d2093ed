package model

import "time"

const (
	TransactionKindDeposit    = "deposit"
	TransactionKindWithdrawal = "withdrawal"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
)

// Transaction is an append-only ledger entry. Rows are never edited or deleted
// once written; only completed rows count toward an account's balance.
type Transaction struct {
	ID             int        `json:"id"`
	AccountID      int        `json:"account_id"`
	Kind           string     `json:"kind"`
	Amount         float64    `json:"amount"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// AccountType is not stored on the row; history responses fill it in
	// from the owning account for display.
	AccountType string `json:"account_type,omitempty"`
}
