package server

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"atsoptimizer/internal/config"
)

type userKeyType struct{}

var userKey = userKeyType{}

// withUser stores the authenticated user id on the request context.
func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// userFromContext returns the user id set by bearer token authentication.
func userFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

// tokenVerifier checks HS256 bearer tokens. The subject claim is the user id.
type tokenVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

func newTokenVerifier(cfg config.AuthConfig) *tokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &tokenVerifier{secret: []byte(cfg.JWTSecret), opts: opts}
}

// Verify returns the subject of a valid token.
func (v *tokenVerifier) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}
