// Package middleware provides HTTP middleware for JWT authentication, request
// ids, rate limiting and request logging.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject string
	Issuer  string
	Email   *string
	Name    *string
	Role    *string
	Raw     map[string]interface{}
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Issue(subject, email, role string, ttl time.Duration) (string, error)
}

// HS256Validator validates and issues JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var (
	_ JWTValidator = (*HS256Validator)(nil)
	_ TokenIssuer  = (*HS256Validator)(nil)
)

// NewHS256Validator creates a validator for HS256 tokens. Tokens it issues
// carry issuer as the iss claim.
func NewHS256Validator(secret, issuer string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for subject that expires after ttl.
func (v *HS256Validator) Issue(subject, email, role string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies a JWT signed with HS256 and extracts claims.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &JWTClaims{Raw: map[string]interface{}(raw)}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := raw["iss"].(string); ok {
		claims.Issuer = iss
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = &email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = &name
	}
	if role, ok := raw["role"].(string); ok {
		claims.Role = &role
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("jwt parse: missing sub claim")
	}
	return claims, nil
}
