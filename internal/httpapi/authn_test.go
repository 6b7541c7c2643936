package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"serveyz.org/internal/auth"
	"serveyz.org/internal/user"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Basic dXNlcg==", "", true},
		{"Bearer ", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("header %q: got (%q, %v)", tc.header, got, err)
		}
	}
}

func TestRequireRoleFlatEquality(t *testing.T) {
	t.Setenv("SERVEYZ_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	users := user.NewInMemory()
	stored, _, err := users.UpsertIfAbsent(t.Context(), user.User{Email: "alice@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if err := users.SetRole(t.Context(), stored.ID, user.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	a := &API{users: users}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	token, err := auth.IssueToken("alice@example.com", auth.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}

	// Admin passes the admin gate.
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	a.requireAuth(a.requireRole(user.RoleAdmin, next)).ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("admin should pass, got %d", rr.Code)
	}

	// Admin does NOT pass the surveyor gate: roles are compared flat.
	rr = httptest.NewRecorder()
	a.requireAuth(a.requireRole(user.RoleSurveyor, next)).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("admin must not satisfy surveyor, got %d", rr.Code)
	}

	// Unknown identity is forbidden, not an error.
	ghost, err := auth.IssueToken("ghost@example.com", auth.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+ghost)
	rr = httptest.NewRecorder()
	a.requireAuth(a.requireRole(user.RoleAdmin, next)).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unknown email must be 403, got %d", rr.Code)
	}

	// Missing token.
	req.Header.Del("Authorization")
	rr = httptest.NewRecorder()
	a.requireAuth(a.requireRole(user.RoleAdmin, next)).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token must be 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}

	// Tampered token.
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rr = httptest.NewRecorder()
	a.requireAuth(a.requireRole(user.RoleAdmin, next)).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token must be 401, got %d", rr.Code)
	}
}

func TestRequireSelfIsCaseSensitive(t *testing.T) {
	t.Setenv("SERVEYZ_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	a := &API{}
	req := httptest.NewRequest(http.MethodGet, "/users/admin/Alice@example.com", nil)
	req = req.WithContext(auth.ContextWithEmail(req.Context(), "alice@example.com"))

	rr := httptest.NewRecorder()
	if a.requireSelf(rr, req, "Alice@example.com") {
		t.Fatal("email comparison must be case-sensitive")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	if !a.requireSelf(rr, req, "alice@example.com") {
		t.Fatal("exact match must pass")
	}
}
