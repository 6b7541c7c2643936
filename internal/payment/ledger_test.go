package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"serveyz.org/internal/user"
)

func TestRecordPromotesPayer(t *testing.T) {
	ctx := context.Background()
	users := user.NewInMemory()
	if _, _, err := users.UpsertIfAbsent(ctx, user.User{Email: "payer@example.com"}); err != nil {
		t.Fatal(err)
	}
	ledger := NewLedger(NewInMemory(), users)

	receipt, err := ledger.Record(ctx, Payment{Email: "payer@example.com", Amount: 1999, Currency: "usd", TransactionID: "pi_123"})
	if err != nil {
		t.Fatal(err)
	}
	if !receipt.RoleUpdated {
		t.Fatal("expected role promotion")
	}
	if receipt.Payment.ID == "" {
		t.Fatal("expected generated payment id")
	}

	pro, err := users.RoleFlag(ctx, "payer@example.com", user.RolePro)
	if err != nil || !pro {
		t.Fatalf("payer must be pro-user after payment: %v err=%v", pro, err)
	}
}

// failingRoleStore wraps a user store but refuses promotions.
type failingRoleStore struct {
	user.Store
}

func (f failingRoleStore) SetRoleByEmail(ctx context.Context, email string, role user.Role) error {
	return errors.New("role store unavailable")
}

func TestRecordKeepsPaymentWhenPromotionFails(t *testing.T) {
	ctx := context.Background()
	payments := NewInMemory()
	ledger := NewLedger(payments, failingRoleStore{user.NewInMemory()})

	receipt, err := ledger.Record(ctx, Payment{Email: "payer@example.com", Amount: 1999})
	if err != nil {
		t.Fatalf("a failed promotion must not fail the record: %v", err)
	}
	if receipt.RoleUpdated {
		t.Fatal("expected RoleUpdated=false")
	}

	mine, err := ledger.ListByEmail(ctx, "payer@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != receipt.Payment.ID {
		t.Fatalf("payment record must survive a failed promotion: %+v", mine)
	}
}

func TestRecordRejectsInvalidPayment(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewInMemory(), user.NewInMemory())

	if _, err := ledger.Record(ctx, Payment{Amount: 100}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := ledger.Record(ctx, Payment{Email: "p@example.com", Amount: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestConcurrentPromotionsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := user.NewInMemory()
	if _, _, err := users.UpsertIfAbsent(ctx, user.User{Email: "payer@example.com"}); err != nil {
		t.Fatal(err)
	}
	ledger := NewLedger(NewInMemory(), users)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ledger.Record(ctx, Payment{Email: "payer@example.com", Amount: 1999})
		}()
	}
	wg.Wait()

	pro, _ := users.RoleFlag(ctx, "payer@example.com", user.RolePro)
	if !pro {
		t.Fatal("role must end at pro-user")
	}
	all, _ := ledger.ListByEmail(ctx, "payer@example.com")
	if len(all) != n {
		t.Fatalf("all payment records must persist: got %d, want %d", len(all), n)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		19.99:  1999,
		10:     1000,
		0.5:    50,
		19.999: 1999, // truncates, never rounds up
		0:      0,
	}
	for price, want := range cases {
		if got := MinorUnits(price); got != want {
			t.Fatalf("MinorUnits(%v)=%d, want %d", price, got, want)
		}
	}
}
