package models

import (
	"time"

	"spendlog/internal/money"
)

// Expense is a single spending record owned by exactly one user.
// JSON field names match what the browser client reads; paymentMethod keeps
// its camelCase spelling on the wire.
type Expense struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	Date          string       `json:"date"` // YYYY-MM-DD
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	PaymentMethod string       `json:"paymentMethod"`
	CreatedAt     time.Time    `json:"createdAt"`
}
