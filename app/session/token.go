package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"

	"studio-go/app/config"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 12 * time.Hour

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"cid"`
	Role      Role   `json:"role"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer from the auth settings.
func NewIssuer(cfg config.AuthConfig) (*Issuer, error) {
	if len(cfg.Secret) < config.MinSecretLen {
		return nil, fmt.Errorf("auth secret must be at least %d bytes", config.MinSecretLen)
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for s.
func (i *Issuer) Issue(s Session) (string, error) {
	if s.UserID == "" || s.CompanyID == "" || !s.Role.Valid() {
		return "", fmt.Errorf("incomplete session: user %q, company %q, role %q", s.UserID, s.CompanyID, s.Role)
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        tokenID,
		},
		CompanyID: s.CompanyID,
		Role:      s.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token and returns its session.
func (i *Issuer) Verify(token string) (Session, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, ErrInvalidToken
	}

	s := Session{UserID: claims.Subject, CompanyID: claims.CompanyID, Role: claims.Role}
	if s.UserID == "" || s.CompanyID == "" || !s.Role.Valid() {
		return Session{}, ErrInvalidToken
	}
	return s, nil
}
