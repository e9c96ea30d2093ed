package model

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest defines the payload for exchanging a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateAccountRequest defines the payload for opening a new account.
// A user may hold at most one account of each type.
type CreateAccountRequest struct {
	AccountType string `json:"account_type" validate:"required,oneof=checking savings"`
}

// FundingSource describes the instrument backing a deposit. Card deposits
// carry the card number; bank deposits carry routing and account numbers.
type FundingSource struct {
	Type          string `json:"type" validate:"required,oneof=card bank"`
	CardNumber    string `json:"card_number,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// FundRequest defines the payload for funding an account. IdempotencyKey, when
// supplied, makes retries of the same logical request side-effect-free.
type FundRequest struct {
	Amount         float64       `json:"amount" validate:"required"`
	Source         FundingSource `json:"source" validate:"required"`
	IdempotencyKey string        `json:"idempotency_key,omitempty" validate:"omitempty,max=64"`
}
