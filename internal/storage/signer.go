package storage

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Signer issues and verifies the HS256 tokens that gate temporary read access
// to stored objects. The token binds the object path, so a link for one file
// cannot be replayed against another.
type Signer struct {
	secret []byte
}

type urlClaims struct {
	Path string `json:"path"`
	jwtlib.RegisteredClaims
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns a token granting read access to path until the ttl elapses.
func (s *Signer) Sign(path string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := urlClaims{
		Path: path,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks the token signature, expiry and path binding.
func (s *Signer) Verify(token, path string) error {
	parsed, err := jwtlib.ParseWithClaims(token, &urlClaims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return errors.New("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*urlClaims)
	if !ok || claims.Path != path {
		return errors.New("token does not match object path")
	}
	return nil
}
