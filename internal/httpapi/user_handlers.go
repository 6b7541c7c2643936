package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"serveyz.org/internal/audit"
	"serveyz.org/internal/auth"
	"serveyz.org/internal/user"
)

type tokenRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}

	token, err := auth.IssueToken(email, auth.DefaultTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	expiresAt := time.Now().UTC().Add(auth.DefaultTTL)
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"email":      email,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// roleFlagHandler answers "does {email} hold exactly this role". The caller
// may only ask about itself.
func (a *API) roleFlagHandler(role user.Role, field string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		if !a.requireSelf(w, r, email) {
			return
		}
		flag, err := a.users.RoleFlag(r.Context(), email, role)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{field: flag})
	})
}

type upsertUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

func (a *API) upsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stored, created, err := a.users.UpsertIfAbsent(r.Context(), user.User{
		Email:    strings.TrimSpace(req.Email),
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, user.ErrInvalidEmail) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, stored)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.created", map[string]any{
		"user_id": stored.ID,
		"email":   stored.Email,
	})
	writeJSON(w, http.StatusCreated, stored)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) setUserRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := user.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.users.SetRole(r.Context(), id, role); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "user.role.changed", map[string]any{
		"user_id": id,
		"role":    string(role),
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "role": role})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := a.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"user_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}
