// Package tokenstore persists the bearer token pair issued by the storefront
// backend. The store is the single source of truth for authentication state:
// a session is authenticated exactly when a non-empty access token is stored.
//
// Implementations are shared-mutable and last-writer-wins. Watchers receive a
// change notification whenever another writer (same process or not) mutates
// the pair, mirroring how same-origin browser tabs observe each other's
// storage writes.
package tokenstore

import "context"

// Pair holds the two opaque bearer strings issued at login and rotated on
// refresh. Both are stored and returned verbatim; no layer below the token
// inspector ever looks inside them.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty reports whether neither token is present.
func (p Pair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Store persists a token pair. Save and Clear apply to both tokens together;
// there is no partial update. Reads return the empty string when the key is
// absent.
type Store interface {
	// Save overwrites any existing pair.
	Save(ctx context.Context, pair Pair) error
	// Clear removes both tokens.
	Clear(ctx context.Context) error
	// AccessToken returns the stored access token, or "" if none.
	AccessToken(ctx context.Context) (string, error)
	// RefreshToken returns the stored refresh token, or "" if none.
	RefreshToken(ctx context.Context) (string, error)
	// Watch returns a channel that receives the stored pair after each
	// mutation until ctx is cancelled. Notifications are point-in-time
	// snapshots, not deltas: a consumer must re-derive its state from the
	// received pair rather than diff against what it saw before.
	Watch(ctx context.Context) (<-chan Pair, error)
}

// Load reads both tokens in one call.
func Load(ctx context.Context, s Store) (Pair, error) {
	access, err := s.AccessToken(ctx)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.RefreshToken(ctx)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}
