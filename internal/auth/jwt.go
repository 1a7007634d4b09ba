package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL matches the lifetime of the old session cookie.
const TokenTTL = 7 * 24 * time.Hour

const devSecret = "deediq-dev-secret-change-in-production"

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 caller tokens.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	if secret == "" {
		log.Println("Warning: JWT_SECRET not set, using development secret")
		secret = devSecret
	}
	return &Issuer{secret: []byte(secret)}
}

// GenerateToken signs a token for the user that expires after TokenTTL.
func (i *Issuer) GenerateToken(userID, username string) (string, error) {
	return i.GenerateTokenWithExpiry(userID, username, time.Now().Add(TokenTTL))
}

// GenerateTokenWithExpiry signs a token for the user that expires at expiry.
func (i *Issuer) GenerateTokenWithExpiry(userID, username string, expiry time.Time) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken checks the signature and expiry of tokenString against the
// issuer's secret and returns its claims. Only HMAC-signed tokens pass.
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Caller resolves a bearer token to a caller identity.
func (i *Issuer) Caller(tokenString string) (Caller, error) {
	claims, err := i.ValidateToken(tokenString)
	if err != nil {
		return Anonymous, err
	}
	return Caller{UserID: claims.UserID, Username: claims.Username}, nil
}

type contextKey struct{}

// WithCaller attaches c to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// CallerFromContext returns the caller attached to ctx, or Anonymous.
func CallerFromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(contextKey{}).(Caller); ok {
		return c
	}
	return Anonymous
}
