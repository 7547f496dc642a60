package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultExpiry is used when a caller does not ask for a specific lifetime.
const DefaultExpiry = time.Hour

// Signer mints time-limited download URLs for objects in one bucket.
// Signing is local computation; implementations must not call the network.
type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// ErrNotConfigured marks missing credential material or settings.
var ErrNotConfigured = errors.New("storage: not configured")

// ConfigError lists the settings a provider needs but did not get.
type ConfigError struct {
	Provider string
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("storage: %s provider is missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

func missing(provider string, fields map[string]string) error {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(fields[name]) == "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return &ConfigError{Provider: provider, Missing: out}
}
