package pg

import (
	"context"
	"database/sql"
	"strings"

	"serveyz.org/internal/ids"
	"serveyz.org/internal/payment"
)

// PaymentStore implements payment.Store on Postgres.
type PaymentStore struct {
	db *sql.DB
}

var _ payment.Store = (*PaymentStore)(nil)

func (s *PaymentStore) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	if strings.TrimSpace(p.Email) == "" {
		return payment.Payment{}, payment.ErrInvalidEmail
	}
	if p.Amount <= 0 {
		return payment.Payment{}, payment.ErrInvalidAmount
	}
	p.ID = ids.New()
	if p.Currency == "" {
		p.Currency = "usd"
	}
	err := s.db.QueryRowContext(ctx, `
		insert into payments(id, email, amount, currency, transaction_id, created_at)
		values ($1, $2, $3, $4, nullif($5,''), now())
		returning created_at
	`, p.ID, p.Email, p.Amount, p.Currency, p.TransactionID).Scan(&p.CreatedAt)
	if err != nil {
		return payment.Payment{}, err
	}
	return p, nil
}

func (s *PaymentStore) List(ctx context.Context) ([]payment.Payment, error) {
	return s.query(ctx, `
		select id, email, amount, currency, coalesce(transaction_id,''), created_at
		from payments order by created_at asc
	`)
}

func (s *PaymentStore) ListByEmail(ctx context.Context, email string) ([]payment.Payment, error) {
	return s.query(ctx, `
		select id, email, amount, currency, coalesce(transaction_id,''), created_at
		from payments where email=$1 order by created_at asc
	`, email)
}

func (s *PaymentStore) query(ctx context.Context, q string, args ...any) ([]payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.Email, &p.Amount, &p.Currency, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
