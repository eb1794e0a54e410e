package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
)

// UserServiceInterface defines the interface for user profile operations.
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*service.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in service.UpdateProfileInput) (*model.User, error)
	Withdraw(ctx context.Context, userID string) error
}

// PasswordChecker re-verifies the caller's password before destructive
// account changes.
type PasswordChecker interface {
	CheckPassword(ctx context.Context, userID, password string) error
}

// UserHandlers provides HTTP handlers for the /users/me surface.
type UserHandlers struct {
	Svc       UserServiceInterface
	Passwords PasswordChecker
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (domainauth.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"})
	}
	return principal, ok
}

// Me handles GET /users/me.
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	profile, err := h.Svc.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /users/me.
func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req struct {
		Nickname        *string `json:"nickname"`
		ProfileImageKey *string `json:"profileImageKey"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	_, err := h.Svc.UpdateProfile(r.Context(), principal.UserID, service.UpdateProfileInput{
		Nickname:        req.Nickname,
		ProfileImageKey: req.ProfileImageKey,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Withdraw handles PATCH /users/me/withdraw. The password is re-checked so
// a hijacked access token alone cannot delete the account.
func (h *UserHandlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Passwords.CheckPassword(r.Context(), principal.UserID, req.Password); err != nil {
		WriteAppError(w, err)
		return
	}
	if err := h.Svc.Withdraw(r.Context(), principal.UserID); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
