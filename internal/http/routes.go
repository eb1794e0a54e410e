package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthServiceInterface
	Users    UserServiceInterface
	Posts    PostServiceInterface
	Comments CommentServiceInterface
	Storage  ports.ObjectStorage
	Security RouterSecurity
	// Compression enables gzip for compressible responses when non-nil.
	Compression *CompressionOptions
	Logger      *slog.Logger
}

// RouterSecurity groups the token-verification wiring of the router.
type RouterSecurity struct {
	Verifier     TokenVerifier
	Bypass       []BypassRule
	CookieDomain string
	RefreshTTL   time.Duration
	// AllowedOrigins enables CORS for the browser frontend when non-empty.
	AllowedOrigins []string
}

// NewRouter creates and configures the HTTP handler: router, verification
// filter, and outer middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Verifier:     services.Security.Verifier,
		CookieDomain: services.Security.CookieDomain,
		RefreshTTL:   services.Security.RefreshTTL,
		Logger:       logger,
	}
	userHandlers := &UserHandlers{Svc: services.Users, Passwords: services.Auth}
	postHandlers := &PostHandlers{Svc: services.Posts}
	commentHandlers := &CommentHandlers{Svc: services.Comments}
	imageHandlers := &ImageHandlers{Storage: services.Storage}

	mux.HandleFunc("POST /auth/users", authHandlers.SignUp)
	mux.HandleFunc("POST /auth/tokens", authHandlers.Login)
	mux.HandleFunc("POST /auth/refresh", authHandlers.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/email", authHandlers.CheckEmail)
	mux.HandleFunc("GET /auth/nickname", authHandlers.CheckNickname)
	mux.HandleFunc("POST /auth/password", authHandlers.VerifyPassword)
	mux.HandleFunc("PATCH /auth/password", authHandlers.UpdatePassword)

	mux.HandleFunc("GET /users/me", userHandlers.Me)
	mux.HandleFunc("PATCH /users/me", userHandlers.UpdateMe)
	mux.HandleFunc("PATCH /users/me/withdraw", userHandlers.Withdraw)

	mux.HandleFunc("POST /posts", postHandlers.Create)
	mux.HandleFunc("GET /posts", postHandlers.List)
	mux.HandleFunc("GET /posts/{id}", postHandlers.Get)
	mux.HandleFunc("PATCH /posts/{id}", postHandlers.Update)
	mux.HandleFunc("DELETE /posts/{id}", postHandlers.Delete)
	mux.HandleFunc("POST /posts/{id}/like", postHandlers.Like)
	mux.HandleFunc("DELETE /posts/{id}/like", postHandlers.Unlike)

	mux.HandleFunc("GET /posts/{id}/comments", commentHandlers.List)
	mux.HandleFunc("POST /posts/{id}/comments", commentHandlers.Create)
	mux.HandleFunc("PATCH /comments/{id}", commentHandlers.Update)
	mux.HandleFunc("DELETE /comments/{id}", commentHandlers.Delete)

	mux.HandleFunc("POST /images/presign", imageHandlers.Presign)

	mux.HandleFunc("GET /terms", termsHandler)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	bypass := services.Security.Bypass
	if bypass == nil {
		bypass = DefaultBypassRules()
	}

	middlewares := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(logger),
	}
	if services.Compression != nil {
		middlewares = append(middlewares, Compression(*services.Compression))
	}
	if len(services.Security.AllowedOrigins) > 0 {
		middlewares = append(middlewares, CORS(services.Security.AllowedOrigins))
	}
	middlewares = append(middlewares, TokenAuth(TokenAuthOptions{
		Verifier: services.Security.Verifier,
		Bypass:   bypass,
		Logger:   logger,
	}))

	return Chain(mux, middlewares...)
}
