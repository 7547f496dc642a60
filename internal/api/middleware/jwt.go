package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/cinedesk/internal/utils"
)

// Gin context keys set by JWTAuth.
const (
	KeyUserID      = "user_id"
	KeyRole        = "role"
	KeyAccessToken = "access_token"
)

var errJWTSecretMissing = errors.New("SUPABASE_JWT_SECRET is not set")

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

type supabaseClaims struct {
	jwt.RegisteredClaims
	Role        string         `json:"role"` // usually "authenticated" / "anon"
	AppMetadata map[string]any `json:"app_metadata"`
}

// JWTAuth verifies Supabase HS256 access tokens.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	const op = "JWTAuth"
	unauthorized := func(c *gin.Context, msg string) {
		abort(c, utils.E(utils.CodeUnauthorized, op, msg, nil))
	}

	return func(c *gin.Context) {
		if cfg.Secret == "" {
			abort(c, utils.E(utils.CodeInternal, op, "", errJWTSecretMissing))
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := &supabaseClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || tok == nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}

		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			unauthorized(c, "invalid token issuer")
			return
		}
		if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
			unauthorized(c, "invalid token audience")
			return
		}

		userID := claims.Subject // Supabase user UUID
		if userID == "" {
			unauthorized(c, "missing subject")
			return
		}

		role := "user"
		if v, ok := claims.AppMetadata["role"].(string); ok && v != "" {
			role = v
		}

		c.Set(KeyUserID, userID)
		c.Set(KeyRole, role)
		c.Set(KeyAccessToken, raw)
		c.Next()
	}
}
