package payment

import (
	"context"
	"errors"
	"math"
	"time"
)

// Payment is an immutable record of a completed client-side payment.
// Amount is in minor units (cents); no floats are stored.
type Payment struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	ErrInvalidEmail  = errors.New("payer email is required")
	ErrInvalidAmount = errors.New("amount must be > 0")
	ErrGateway       = errors.New("payment gateway error")
)

// Store defines payment persistence. Payments are append-only.
type Store interface {
	Insert(ctx context.Context, p Payment) (Payment, error)
	List(ctx context.Context) ([]Payment, error)
	ListByEmail(ctx context.Context, email string) ([]Payment, error)
}

// IntentCreator starts a payment on the external gateway and returns the
// client secret the browser needs to confirm it. Nothing else from the
// gateway response leaves the adapter.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// MinorUnits converts a major-unit price to minor units, truncating.
// The epsilon guards against float artifacts (19.99*100 = 1998.999...).
func MinorUnits(price float64) int64 {
	return int64(math.Trunc(price*100 + 1e-6))
}
