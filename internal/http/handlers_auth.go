package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
)

const refreshCookieName = "refreshToken"

// refreshCookiePath restricts the cookie to the rotation endpoint so it is
// not replayed on every request.
const refreshCookiePath = "/auth/refresh"

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Rotate(ctx context.Context, refreshToken string) (*service.LoginResult, error)
	Revoke(ctx context.Context, userID string)
	CheckPassword(ctx context.Context, userID, password string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	CheckDuplicatedEmail(ctx context.Context, email string) (bool, error)
	CheckDuplicatedNickname(ctx context.Context, nickname string) (bool, error)
}

// AuthHandlers provides HTTP handlers for the authentication lifecycle.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Verifier     TokenVerifier
	CookieDomain string
	RefreshTTL   time.Duration
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SignUp handles POST /auth/users.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		Nickname        string  `json:"nickname"`
		ProfileImageKey *string `json:"profileImageKey"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.Svc.SignUp(r.Context(), service.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		Nickname:        req.Nickname,
		ProfileImageKey: req.ProfileImageKey,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"userId": user.ID})
}

// Login handles POST /auth/tokens. On success the access token travels in
// the Authorization response header and the refresh token in an HttpOnly
// cookie scoped to the rotation endpoint.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+result.Tokens.AccessToken)
	h.setRefreshCookie(w, result.Tokens.RefreshToken)
	WriteJSON(w, http.StatusCreated, map[string]string{
		"userId":   result.User.ID,
		"nickname": result.User.Nickname,
	})
}

// Refresh handles POST /auth/refresh. The presented cookie must hold the
// single live refresh token; on success both credentials are replaced and
// the old refresh token is dead.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "refresh token required"})
		return
	}

	result, err := h.Svc.Rotate(r.Context(), cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+result.Tokens.AccessToken)
	h.setRefreshCookie(w, result.Tokens.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /auth/logout. It is tolerant: whatever credential the
// client still holds is used to find the session, and the response is 204
// regardless, since the client is discarding its tokens either way.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := h.logoutSubject(r); userID != "" {
		h.Svc.Revoke(r.Context(), userID)
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// logoutSubject extracts the user identity from whichever token the logout
// request still carries. Verification failures are ignored.
func (h *AuthHandlers) logoutSubject(r *http.Request) string {
	for _, raw := range []string{extractAccessToken(r), refreshCookieValue(r)} {
		if raw == "" {
			continue
		}
		claims, err := h.Verifier.Verify(raw)
		if err != nil {
			continue
		}
		return claims.Subject
	}
	return ""
}

func refreshCookieValue(r *http.Request) string {
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}

// CheckEmail handles GET /auth/email?email=.
func (h *AuthHandlers) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: "email is required"})
		return
	}
	taken, err := h.Svc.CheckDuplicatedEmail(r.Context(), email)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"available": !taken})
}

// CheckNickname handles GET /auth/nickname?nickname=.
func (h *AuthHandlers) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: "nickname is required"})
		return
	}
	taken, err := h.Svc.CheckDuplicatedNickname(r.Context(), nickname)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"available": !taken})
}

// VerifyPassword handles POST /auth/password: re-authentication before a
// sensitive change.
func (h *AuthHandlers) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"})
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Svc.CheckPassword(r.Context(), principal.UserID, req.Password); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// UpdatePassword handles PATCH /auth/password. The live session is revoked
// so existing refresh tokens die with the old password.
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"})
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Svc.UpdatePassword(r.Context(), principal.UserID, req.Password); err != nil {
		WriteAppError(w, err)
		return
	}
	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *AuthHandlers) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		Domain:   h.CookieDomain,
		MaxAge:   int(h.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
