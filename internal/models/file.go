package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// SignedURLRequest is the body of POST /api/files/signed-url.
type SignedURLRequest struct {
	StoragePath string        `json:"storagePath"`
	ExpiresIn   ExpirySeconds `json:"expiresIn,omitempty"` // default 3600
}

type SignedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

// ExpirySeconds decodes leniently: fractional numbers are truncated, numeric
// strings are accepted, and anything else decodes to 0 (the default expiry).
type ExpirySeconds int64

func (e *ExpirySeconds) UnmarshalJSON(b []byte) error {
	*e = 0

	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}

	f, err := strconv.ParseFloat(string(bytes.TrimSpace(b)), 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return nil
	}
	if f >= math.MaxInt64 {
		*e = math.MaxInt64
		return nil
	}
	*e = ExpirySeconds(f)
	return nil
}
