package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair is the transient access/refresh pair handed back to callers. It
// is never persisted as a unit; the refresh side lands in the store, the
// access side travels with the caller.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TTL          int    `json:"ttl"`
}

var ErrMalformedAuthHeader = errors.New("malformed authorization header")

// TokenCodec builds signed access tokens and opaque refresh tokens, and
// extracts bearer tokens from credential headers.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// MintPair issues a fresh pair for the user. The access token carries the
// user id under the "user" claim plus iat/exp; the refresh token is an
// opaque UUIDv4. TTL mirrors the exp claim in seconds.
func (c *TokenCodec) MintPair(userID uuid.UUID) (*TokenPair, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user": userID.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttl).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		TTL:          int(c.ttl / time.Second),
	}, nil
}

// ParseAccessToken verifies the signature and expiry of an access token and
// returns the user id it carries.
func (c *TokenCodec) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid token claims")
	}
	sub, _ := claims["user"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user claim: %w", err)
	}
	return id, nil
}

// BearerFromHeader extracts the token from a "Bearer <token>" credential
// header.
func BearerFromHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedAuthHeader
	}
	return parts[1], nil
}
