package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"serveyz.org/internal/auth"
	"serveyz.org/internal/user"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// requireAuth validates the bearer token and places the authenticated email
// on the request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		ctx := auth.ContextWithEmail(r.Context(), claims.Email())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole checks the caller's stored role against role with flat
// equality; an admin does not satisfy a surveyor check. Runs inside
// requireAuth.
func (a *API) requireRole(role user.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := auth.EmailFromContext(r.Context())
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		matches, err := a.users.RoleFlag(r.Context(), email, role)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if !matches {
			writeError(w, r, http.StatusForbidden, "forbidden access")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSelf enforces that the authenticated email equals target exactly
// (case-sensitive). Reports whether the request may proceed.
func (a *API) requireSelf(w http.ResponseWriter, r *http.Request, target string) bool {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	if email != target {
		writeError(w, r, http.StatusForbidden, "forbidden access")
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
