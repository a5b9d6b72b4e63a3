package auth

import (
	"sync"
	"time"
)

// Revocations remembers signed-out token ids until they would have expired anyway.
type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewRevocations returns an empty revocation list.
func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks the token id as unusable until expiresAt.
func (r *Revocations) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, id)
		}
	}
	r.revoked[tokenID] = expiresAt
}

// IsRevoked reports whether the token id was signed out.
func (r *Revocations) IsRevoked(tokenID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok
}
