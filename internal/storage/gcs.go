package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
)

// GCSConfig points at a service account key; CredentialsJSON wins over
// CredentialsFile when both are set.
type GCSConfig struct {
	Bucket          string
	CredentialsJSON string
	CredentialsFile string
}

// GCSSigner produces V4 signed URLs with a service account private key.
type GCSSigner struct {
	bucket         string
	googleAccessID string
	privateKey     []byte

	now func() time.Time
}

func NewGCSSigner(cfg GCSConfig) (*GCSSigner, error) {
	creds := cfg.CredentialsJSON
	if err := missing("gcs", map[string]string{
		"bucket":      cfg.Bucket,
		"credentials": creds + cfg.CredentialsFile,
	}); err != nil {
		return nil, err
	}

	raw := []byte(creds)
	if len(raw) == 0 {
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, &ConfigError{Provider: "gcs", Missing: []string{"readable credentials file"}}
		}
		raw = b
	}

	jwtCfg, err := google.JWTConfigFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
	}
	if jwtCfg.Email == "" || len(jwtCfg.PrivateKey) == 0 {
		return nil, &ConfigError{Provider: "gcs", Missing: []string{"client_email/private_key"}}
	}

	return &GCSSigner{
		bucket:         cfg.Bucket,
		googleAccessID: jwtCfg.Email,
		privateKey:     jwtCfg.PrivateKey,
		now:            time.Now,
	}, nil
}

func (g *GCSSigner) SignedGetURL(_ context.Context, objectName string, ttl time.Duration) (string, error) {
	u, err := gcs.SignedURL(g.bucket, objectName, &gcs.SignedURLOptions{
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
		Method:         http.MethodGet,
		Expires:        g.now().Add(ttl),
		Scheme:         gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign gcs GET %s: %w", objectName, err)
	}
	return u, nil
}

var _ Signer = (*GCSSigner)(nil)
