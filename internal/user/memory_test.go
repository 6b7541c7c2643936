package user

import (
	"context"
	"testing"
)

func TestUpsertIfAbsentInsertsOnce(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first, created, err := s.UpsertIfAbsent(ctx, User{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("expected first upsert to insert")
	}
	if first.Role != RoleUser {
		t.Fatalf("expected server-assigned role %q, got %q", RoleUser, first.Role)
	}

	second, created, err := s.UpsertIfAbsent(ctx, User{Email: "a@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("expected second upsert to be a no-op")
	}
	if second.ID != first.ID || second.Role != RoleUser {
		t.Fatalf("second upsert mutated the stored user: %+v", second)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(all))
	}
}

func TestUpsertForcesDefaultRole(t *testing.T) {
	s := NewInMemory()
	u, _, err := s.UpsertIfAbsent(context.Background(), User{Email: "evil@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != RoleUser {
		t.Fatalf("caller-supplied role must be ignored, got %q", u.Role)
	}
}

func TestRoleFlagFlatEquality(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	u, _, _ := s.UpsertIfAbsent(ctx, User{Email: "admin@example.com"})
	if err := s.SetRole(ctx, u.ID, RoleAdmin); err != nil {
		t.Fatal(err)
	}

	admin, err := s.RoleFlag(ctx, "admin@example.com", RoleAdmin)
	if err != nil || !admin {
		t.Fatalf("expected admin flag true, got %v err=%v", admin, err)
	}
	// No hierarchy: admin does not satisfy a surveyor check.
	surveyor, err := s.RoleFlag(ctx, "admin@example.com", RoleSurveyor)
	if err != nil || surveyor {
		t.Fatalf("expected surveyor flag false for admin, got %v", surveyor)
	}
}

func TestRoleFlagUnknownEmail(t *testing.T) {
	s := NewInMemory()
	ok, err := s.RoleFlag(context.Background(), "nobody@example.com", RoleUser)
	if err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if ok {
		t.Fatal("unknown email must report false")
	}
}

func TestSetRoleAndDeleteNotFound(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if err := s.SetRole(ctx, "missing", RoleAdmin); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetRoleByEmail(ctx, "missing@example.com", RolePro); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesUser(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	u, _, _ := s.UpsertIfAbsent(ctx, User{Email: "gone@example.com"})
	if err := s.Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindByEmail(ctx, "gone@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "pro-user", "surveyor", "admin"} {
		if _, err := ParseRole(valid); err != nil {
			t.Fatalf("ParseRole(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "root", "Admin", "pro user"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Fatalf("ParseRole(%q): expected error", invalid)
		}
	}
}
