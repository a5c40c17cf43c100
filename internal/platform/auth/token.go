package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity attached to a request after
// token verification. It lives for one request only.
type Principal struct {
	ID    string
	Role  Role
	Email string
}

// Claims is the wire form of a Principal inside a signed token.
type Claims struct {
	jwt.RegisteredClaims
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// TokenCodec issues and verifies HS256-signed bearer tokens.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Issue signs a token carrying the principal's id, role and email.
func (tc *TokenCodec) Issue(id string, role Role, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		ID:    id,
		Role:  string(role),
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and returns the Principal it
// carries. Expired, malformed, or wrongly-signed tokens, and tokens whose
// role is outside the canonical enumeration, all return ErrInvalidToken.
func (tc *TokenCodec) Verify(tokenStr string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return nil, ErrInvalidToken
	}

	id := claims.ID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{ID: id, Role: role, Email: claims.Email}, nil
}
