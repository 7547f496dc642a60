package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	ProviderS3  = "s3"
	ProviderGCS = "gcs"
)

// Factory builds the provider signer. It runs at most once per Gateway.
type Factory func(ctx context.Context) (Signer, error)

// Gateway lazily builds a single Signer and shares it between requests.
// A failed construction is remembered: every later call returns the same
// error instead of retrying.
type Gateway struct {
	factory Factory

	once   sync.Once
	signer Signer
	err    error
}

func NewGateway(factory Factory) *Gateway {
	return &Gateway{factory: factory}
}

// GatewayConfig selects a provider and carries its settings.
type GatewayConfig struct {
	Provider string
	S3       S3Config
	GCS      GCSConfig
}

func NewGatewayFromConfig(cfg GatewayConfig) *Gateway {
	return NewGateway(func(ctx context.Context) (Signer, error) {
		switch cfg.Provider {
		case ProviderS3, "":
			return NewS3Signer(ctx, cfg.S3)
		case ProviderGCS:
			return NewGCSSigner(cfg.GCS)
		default:
			return nil, &ConfigError{Provider: cfg.Provider, Missing: []string{"supported provider (s3|gcs)"}}
		}
	})
}

// Client returns the shared signer, building it on first use.
func (g *Gateway) Client(ctx context.Context) (Signer, error) {
	g.once.Do(func() {
		if g.factory == nil {
			g.err = &ConfigError{Provider: "unknown", Missing: []string{"factory"}}
			return
		}
		g.signer, g.err = g.factory(ctx)
		if g.err == nil && g.signer == nil {
			g.err = errors.New("storage: factory returned no signer")
		}
	})
	return g.signer, g.err
}

// SignURL returns a download URL for objectKey valid for expiry.
func (g *Gateway) SignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if objectKey == "" {
		return "", errors.New("storage: object key is required")
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	signer, err := g.Client(ctx)
	if err != nil {
		return "", fmt.Errorf("storage: client unavailable: %w", err)
	}
	return signer.SignedGetURL(ctx, objectKey, expiry)
}
