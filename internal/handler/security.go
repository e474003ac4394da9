package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/xenking/verdant-storefront/internal/domain/auth"
)

// Authenticator resolves optional bearer tokens to shopper identities via
// HMAC-SHA256 hashed session tokens. Authentication is never required; a
// valid token only enriches checkout with a contact prefill.
type Authenticator struct {
	sessions auth.Repository
	pepper   []byte
}

// NewAuthenticator creates an Authenticator with the given session
// repository and HMAC pepper.
func NewAuthenticator(sessions auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		pepper:   pepper,
	}
}

// HashToken computes the hex HMAC-SHA256 of a raw session token. Exposed so
// seeding tools store the same form the lookup computes.
func (a *Authenticator) HashToken(token string) string {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Identify authenticates the request's bearer token, if present. A missing
// header, an unknown token, or a repository failure all resolve to an
// anonymous request; the caller never distinguishes why.
func (a *Authenticator) Identify(r *http.Request) (*auth.Identity, bool) {
	raw := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || token == "" {
		return nil, false
	}

	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(token))
	hash := mac.Sum(nil)

	sess, err := a.sessions.FindByTokenHash(r.Context(), hex.EncodeToString(hash))
	if err != nil {
		return nil, false
	}

	// Constant-time comparison guards against timing side-channels even though
	// the lookup already succeeded; the stored hash could differ from what we
	// computed if the repository returns a stale row.
	stored, err := hex.DecodeString(sess.TokenHash)
	if err != nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, false
	}

	id := sess.Identity
	return &id, true
}
