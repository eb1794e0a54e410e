package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/token"
)

// Filter rejection codes, part of the wire contract.
const (
	CodeTokenEmpty   = "T001"
	CodeTokenExpired = "T002"
	CodeTokenInvalid = "T003"
)

// BypassRule is one entry of the verification filter's allow-list. Prefix
// rules match any path below Pattern; exact rules match Pattern alone.
type BypassRule struct {
	Pattern string
	Prefix  bool
}

func (r BypassRule) matches(path string) bool {
	if r.Prefix {
		return path == r.Pattern || strings.HasPrefix(path, r.Pattern+"/")
	}
	return path == r.Pattern
}

// DefaultBypassRules lists the routes that skip token verification: the
// auth lifecycle itself, duplicate checks, terms, and health. Evaluated in
// order, first match wins.
func DefaultBypassRules() []BypassRule {
	return []BypassRule{
		{Pattern: "/auth/users"},
		{Pattern: "/auth/tokens"},
		{Pattern: "/auth/refresh"},
		{Pattern: "/auth/logout"},
		{Pattern: "/auth/email"},
		{Pattern: "/auth/nickname"},
		{Pattern: "/terms"},
		{Pattern: "/healthz"},
		{Pattern: "/docs", Prefix: true},
	}
}

// TokenVerifier is the subset of the credential signer the filter needs.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// TokenAuthOptions groups construction parameters for TokenAuth.
type TokenAuthOptions struct {
	Verifier TokenVerifier
	Bypass   []BypassRule
	Logger   *slog.Logger
}

// TokenAuth returns the stateless request verification middleware. Every
// request outside the bypass list must carry a verifiable access token in
// the Authorization header (or accessToken cookie); on success the
// principal is stored in the request context. The filter never consults
// the session store.
func TokenAuth(opts TokenAuthOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rule := range opts.Bypass {
				if rule.matches(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			// A fault inside the filter must become a plain 500, never a
			// broken request pipeline.
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("token filter fault", slog.Any("error", rec))
					WriteError(w, ErrorParams{
						Status:  http.StatusInternalServerError,
						Code:    "FILTER_ERROR",
						Message: "internal server error",
					})
				}
			}()

			raw := extractAccessToken(r)
			if raw == "" {
				WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: CodeTokenEmpty, Message: "access token required"})
				return
			}

			claims, err := opts.Verifier.Verify(raw)
			if err != nil {
				WriteError(w, rejectionFor(err))
				return
			}
			role, ok := domainauth.ParseRole(claims.Role)
			if !ok {
				// Structurally valid but carrying an unknown role: treated
				// as hostile, not defaulted.
				WriteError(w, ErrorParams{Status: http.StatusUnauthorized, Code: CodeTokenInvalid, Message: "invalid token"})
				return
			}

			principal := domainauth.Principal{UserID: claims.Subject, Role: role}
			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), principal)))
		})
	}
}

// extractAccessToken reads the access token from the Authorization header,
// falling back to the accessToken cookie.
func extractAccessToken(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie("accessToken"); err == nil {
		return c.Value
	}
	return ""
}

func rejectionFor(err error) ErrorParams {
	if errors.Is(err, token.ErrExpired) {
		return ErrorParams{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "access token expired"}
	}
	return ErrorParams{Status: http.StatusUnauthorized, Code: CodeTokenInvalid, Message: "invalid token"}
}
