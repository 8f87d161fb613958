// Package session carries the authenticated user, company and role through
// a request. Sessions are established from bearer tokens issued by the
// identity provider and live only for the duration of the request.
package session

import (
	"context"
	"errors"
	"slices"
)

// Role is a user's role within a company.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

var (
	// ErrUnauthenticated indicates the request carries no usable session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden indicates the session's role may not perform the action.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidToken indicates the token is malformed or has an invalid signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")
)

// Session is the identity a request acts as.
type Session struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      Role   `json:"role"`
}

// Is reports whether the session holds one of the given roles.
func (s Session) Is(roles ...Role) bool {
	return slices.Contains(roles, s.Role)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	return s, nil
}
