// Package auth holds the client session: the signed-in user and the bearer
// tokens issued by the backend.
package auth

import (
	"context"
	"sync"
)

// State is the container's authentication state.
type State int

const (
	Unauthenticated State = iota
	// AuthenticatedSyncing means tokens are present and the remote cart and
	// wishlist are being fetched.
	AuthenticatedSyncing
	AuthenticatedSynced
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedSyncing:
		return "syncing"
	case AuthenticatedSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Authenticated reports whether the remote backend is authoritative.
func (s State) Authenticated() bool {
	return s != Unauthenticated
}

// User is the signed-in customer profile.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Tokens are the credentials returned by the identity provider.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Valid reports whether an access token is present.
func (t *Tokens) Valid() bool {
	return t != nil && t.AccessToken != ""
}

// Session is what a successful sign-in hands to the container.
type Session struct {
	User   User
	Tokens Tokens
}

// TokenSource yields the current access token, or "" when signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// StaticToken is a TokenSource with a fixed token.
type StaticToken string

func (s StaticToken) AccessToken(context.Context) string { return string(s) }

// Holder is a TokenSource whose tokens change as the shopper signs in and out.
// The zero value is signed out.
type Holder struct {
	mu     sync.RWMutex
	tokens Tokens
}

// Set replaces the held tokens.
func (h *Holder) Set(t Tokens) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = t
}

// Clear drops the held tokens.
func (h *Holder) Clear() {
	h.Set(Tokens{})
}

// Tokens returns a copy of the held tokens.
func (h *Holder) Tokens() Tokens {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tokens
}

func (h *Holder) AccessToken(context.Context) string {
	return h.Tokens().AccessToken
}
