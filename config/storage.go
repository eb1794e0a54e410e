package config

import "time"

// StorageConfig contains image storage configuration.
type StorageConfig struct {
	// BaseURL is the public base URL of the object storage gateway
	// (e.g., "https://img.example.com").
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9000/community"`

	// SigningKey is the HMAC key used to sign presigned URLs.
	SigningKey string `env:"SIGNING_KEY" envDefault:"local-dev-signing-key"`

	// UploadTTL is the lifetime of presigned upload URLs.
	UploadTTL time.Duration `env:"UPLOAD_TTL"   envDefault:"10m"`

	// DownloadTTL is the lifetime of presigned download URLs.
	DownloadTTL time.Duration `env:"DOWNLOAD_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.UploadTTL <= 0 {
		s.UploadTTL = 10 * time.Minute
	}
	if s.DownloadTTL <= 0 {
		s.DownloadTTL = time.Hour
	}
}
