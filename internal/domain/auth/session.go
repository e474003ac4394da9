package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no session matches a token hash.
var ErrNotFound = errors.New("session not found")

// Identity is the shopper identity attached to a valid session token. It is
// used to gate checkout initiation and pre-fill contact info; session
// lifecycle (issuance, expiry) is owned by the external auth collaborator.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Session pairs a hashed bearer token with its identity.
type Session struct {
	ID        string
	TokenHash string
	Identity  Identity
	Active    bool
}

// Repository provides lookup of sessions by their HMAC token hash.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Session, error)
}
