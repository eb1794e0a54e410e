package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/config"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/adapters/password"
	redisadapter "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/adapters/redis"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/adapters/storage"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/data"
	httpx "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/http"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/token"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
	Signer   *token.Signer
	Storage  *storage.Presigner
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users       *data.UserRepo
	Credentials *data.CredentialRepo
	Posts       *data.PostRepo
	Comments    *data.CommentRepo
}

func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		Users:       data.NewUserRepo(db),
		Credentials: data.NewCredentialRepo(db),
		Posts:       data.NewPostRepo(db),
		Comments:    data.NewCommentRepo(db),
	}
}

// NewServices builds the application service graph from shared infrastructure.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	signer, err := token.NewSigner(token.SignerOptions{
		SecretBase64: cfg.Auth.SigningSecret,
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build token signer: %w", err)
	}

	presigner, err := storage.NewPresigner(storage.PresignerOptions{
		BaseURL:    cfg.Storage.BaseURL,
		SigningKey: cfg.Storage.SigningKey,
		UploadTTL:  cfg.Storage.UploadTTL,
		GetTTL:     cfg.Storage.DownloadTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build storage presigner: %w", err)
	}

	repos := buildRepositories(deps.DB)
	sessions := redisadapter.NewRefreshTokenStore(deps.RedisClient)
	hasher := password.NewBcryptHasher(0)

	auth := service.NewAuthService(service.AuthServiceOptions{
		Repos: service.AuthRepositories{
			Users:       repos.Users,
			Credentials: repos.Credentials,
		},
		Security: service.AuthSecurity{
			Signer:   signer,
			Hasher:   hasher,
			Sessions: sessions,
		},
		Logger: logger,
	})

	users := service.NewUserService(service.UserServiceOptions{
		Users:       repos.Users,
		Credentials: repos.Credentials,
		Extras: service.UserServiceExtras{
			Storage:  presigner,
			Sessions: sessions,
			Logger:   logger,
		},
	})

	posts := service.NewPostService(service.PostServiceOptions{
		Posts:   repos.Posts,
		Authors: users,
		Extras: service.PostServiceExtras{
			Storage: presigner,
			Logger:  logger,
		},
	})

	comments := service.NewCommentService(service.CommentServiceOptions{
		Comments: repos.Comments,
		Authors:  users,
	})

	return &ServiceContainer{
		Auth:     auth,
		Users:    users,
		Posts:    posts,
		Comments: comments,
		Signer:   signer,
		Storage:  presigner,
	}, nil
}

// NewHandler builds the HTTP handler from the service container.
func NewHandler(cfg *config.AppConfig, services *ServiceContainer, logger *slog.Logger) http.Handler {
	var compression *httpx.CompressionOptions
	if cfg.HTTP.CompressionEnabled {
		compression = &httpx.CompressionOptions{Level: cfg.HTTP.CompressionLevel}
	}

	return httpx.NewRouter(httpx.RouterServices{
		Auth:     services.Auth,
		Users:    services.Users,
		Posts:    services.Posts,
		Comments: services.Comments,
		Storage:  services.Storage,
		Security: httpx.RouterSecurity{
			Verifier:       services.Signer,
			Bypass:         httpx.DefaultBypassRules(),
			CookieDomain:   cfg.HTTP.CookieDomain,
			RefreshTTL:     cfg.Auth.RefreshTTL,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		},
		Compression: compression,
		Logger:      logger,
	})
}
