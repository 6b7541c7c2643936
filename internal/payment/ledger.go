package payment

import (
	"context"
	"strings"
	"sync"
	"time"

	"serveyz.org/internal/audit"
	"serveyz.org/internal/ids"
	"serveyz.org/internal/user"
)

// Receipt reports the outcome of recording a payment. RoleUpdated is false
// when the promotion half failed; the payment itself is always kept.
type Receipt struct {
	Payment     Payment `json:"payment"`
	RoleUpdated bool    `json:"role_updated"`
}

// Ledger records payments and promotes the payer to pro-user. The two
// writes are deliberately not one transaction: a recorded payment is real
// money and must never be rolled back because the promotion failed.
type Ledger struct {
	payments Store
	users    user.Store
}

// NewLedger wires the payment store and the role store.
func NewLedger(payments Store, users user.Store) *Ledger {
	return &Ledger{payments: payments, users: users}
}

// Record inserts the payment, then promotes the payer. A failed promotion
// keeps the payment and emits a payment.promotion_failed audit event for
// operator reconciliation.
func (l *Ledger) Record(ctx context.Context, p Payment) (Receipt, error) {
	stored, err := l.payments.Insert(ctx, p)
	if err != nil {
		return Receipt{}, err
	}

	if err := l.users.SetRoleByEmail(ctx, stored.Email, user.RolePro); err != nil {
		_ = audit.LogEvent(ctx, "payment.promotion_failed", map[string]any{
			"payment_id": stored.ID,
			"email":      stored.Email,
			"error":      err.Error(),
		})
		return Receipt{Payment: stored, RoleUpdated: false}, nil
	}
	return Receipt{Payment: stored, RoleUpdated: true}, nil
}

// ListByEmail returns the payer's payment history.
func (l *Ledger) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	return l.payments.ListByEmail(ctx, email)
}

// List returns all recorded payments.
func (l *Ledger) List(ctx context.Context) ([]Payment, error) {
	return l.payments.List(ctx)
}

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu       sync.RWMutex
	payments []Payment
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty payment store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Insert(ctx context.Context, p Payment) (Payment, error) {
	if strings.TrimSpace(p.Email) == "" {
		return Payment{}, ErrInvalidEmail
	}
	if p.Amount <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = ids.New()
	if p.Currency == "" {
		p.Currency = "usd"
	}
	p.CreatedAt = time.Now().UTC()
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *InMemory) List(ctx context.Context) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Payment, len(s.payments))
	copy(res, s.payments)
	return res, nil
}

func (s *InMemory) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Payment
	for _, p := range s.payments {
		if p.Email == email {
			res = append(res, p)
		}
	}
	return res, nil
}
