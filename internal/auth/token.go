// internal/auth/token.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies EdDSA session tokens. A zero TTL issues tokens without expiry.
type Issuer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	TTL     time.Duration
	now     func() time.Time
}

// NewIssuer generates a fresh key pair. Tokens do not survive a restart.
func NewIssuer(ttl time.Duration) (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Issuer{private: priv, public: pub, TTL: ttl, now: time.Now}, nil
}

// NewIssuerFromFiles reads a raw ed25519 key pair from disk.
func NewIssuerFromFiles(privatePath, publicPath string, ttl time.Duration) (*Issuer, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519 key files have the wrong size")
	}
	return &Issuer{private: priv, public: pub, TTL: ttl, now: time.Now}, nil
}

// ParseTTL reads a TOKEN_EXPIRE_TIME style value. "", "0" and "never" mean no expiry.
func ParseTTL(s string) (time.Duration, error) {
	switch strings.TrimSpace(s) {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("token expire time %q: %w", s, err)
	}
	return d, nil
}

// CreateToken returns a signed token whose subject is userID.
func (i *Issuer) CreateToken(userID uuid.UUID) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:  userID.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.TTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(i.private)
}

// ParseToken verifies the token and returns its subject.
func (i *Issuer) ParseToken(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
