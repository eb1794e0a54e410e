// Package storage implements presigned upload/download URL generation. The
// shipped adapter signs URLs itself (HMAC over method, key, and expiry) for
// a storage gateway that validates the same signature; swapping in a cloud
// SDK only means replacing this adapter behind ports.ObjectStorage.
package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
)

// allowed upload content types; images only.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Presigner generates signed, expiring URLs under a fixed base URL.
type Presigner struct {
	baseURL   string
	key       []byte
	uploadTTL time.Duration
	getTTL    time.Duration
	now       func() time.Time
}

// PresignerOptions groups construction parameters for a Presigner.
type PresignerOptions struct {
	BaseURL    string
	SigningKey string
	UploadTTL  time.Duration
	GetTTL     time.Duration
	Now        func() time.Time
}

// NewPresigner validates options and builds a Presigner.
func NewPresigner(opts PresignerOptions) (*Presigner, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("storage base URL is required")
	}
	if opts.SigningKey == "" {
		return nil, errors.New("storage signing key is required")
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 10 * time.Minute
	}
	if opts.GetTTL <= 0 {
		opts.GetTTL = time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Presigner{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		key:       []byte(opts.SigningKey),
		uploadTTL: opts.UploadTTL,
		getTTL:    opts.GetTTL,
		now:       now,
	}, nil
}

// PresignPut returns a signed upload URL for the key. The content type must
// be an allowed image type.
func (p *Presigner) PresignPut(_ context.Context, key, contentType string) (ports.PresignedURL, error) {
	if err := validateKey(key); err != nil {
		return ports.PresignedURL{}, err
	}
	if !allowedContentTypes[contentType] {
		return ports.PresignedURL{}, fmt.Errorf("content type %q is not allowed", contentType)
	}
	return p.presign("PUT", key, p.uploadTTL), nil
}

// PresignGet returns a signed download URL for the key.
func (p *Presigner) PresignGet(_ context.Context, key string) (ports.PresignedURL, error) {
	if err := validateKey(key); err != nil {
		return ports.PresignedURL{}, err
	}
	return p.presign("GET", key, p.getTTL), nil
}

func (p *Presigner) presign(method, key string, ttl time.Duration) ports.PresignedURL {
	expiresAt := p.now().Add(ttl).Truncate(time.Second)
	sig := p.signature(method, key, expiresAt.Unix())

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	q.Set("signature", sig)

	return ports.PresignedURL{
		URL:       p.baseURL + "/" + key + "?" + q.Encode(),
		Key:       key,
		ExpiresAt: expiresAt,
	}
}

func (p *Presigner) signature(method, key string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, p.key)
	fmt.Fprintf(mac, "%s\n%s\n%d", method, key, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("object key %q is not allowed", key)
	}
	return nil
}
