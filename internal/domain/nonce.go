package domain

import (
	"sync"
	"time"
)

// NonceSource hands out strictly increasing millisecond nonces.
// Two calls within the same millisecond get consecutive values.
type NonceSource struct {
	mu   sync.Mutex
	last uint64
	now  func() time.Time
}

// NewNonceSource creates a nonce source whose values are greater than floor.
// floor is the highest nonce ever signed with the same secret (0 if unknown).
func NewNonceSource(floor uint64) *NonceSource {
	return &NonceSource{last: floor, now: time.Now}
}

// Next returns the next nonce.
func (n *NonceSource) Next() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	candidate := uint64(n.now().UnixMilli())
	if candidate <= n.last {
		candidate = n.last + 1
	}
	n.last = candidate

	return candidate
}

// Last returns the most recently issued nonce.
func (n *NonceSource) Last() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.last
}
