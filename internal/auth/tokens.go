package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultTokenExpiry is used when the configured expiry is unset.
const DefaultTokenExpiry = time.Hour

var (
	ErrMissingSecret = errors.New("jwt secret is empty")
	ErrAuthRequired  = errors.New("authentication required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// Claims is the payload of a bearer token.
type Claims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens. It is the only place
// in the application that decodes a token.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for the given signing secret.
func NewTokenIssuer(secret string, expiry time.Duration, issuer string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source, for tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue creates a signed token for user.
func (t *TokenIssuer) Issue(user *entities.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the signature, algorithm, issuer and expiry of a token
// and returns its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrAuthRequired
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
