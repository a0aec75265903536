package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTValidator verifies HS256 tokens in-process using the shared secret.
// It reads the userId and role claims the auth service puts into its tokens,
// so deployments without the remote hop keep the same identity shape.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator initializes a local token validator
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

func (v *JWTValidator) Validate(_ context.Context, token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["userId"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	username, _ := claims["sub"].(string)

	return &Identity{
		UserID:   int64(userID),
		Role:     role,
		Username: username,
	}, nil
}
