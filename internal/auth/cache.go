package auth

import (
	"expensetracker/internal/cache"
)

// DefaultVerifiedTokens bounds the number of tokens CachingVerifier keeps.
const DefaultVerifiedTokens = 1024

// CachingVerifier remembers successful verifications until the token's own
// expiry. Failures are never cached.
type CachingVerifier struct {
	next  Verifier
	cache *cache.LRU[Identity]
}

func NewCachingVerifier(next Verifier, size int) *CachingVerifier {
	return &CachingVerifier{next: next, cache: cache.NewLRU[Identity](size)}
}

func (v *CachingVerifier) Verify(token string) (Identity, error) {
	if id, ok := v.cache.Get(token); ok {
		return id, nil
	}
	id, err := v.next.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	v.cache.Set(token, id, id.ExpiresAt)
	return id, nil
}

// Len reports how many verified tokens are cached.
func (v *CachingVerifier) Len() int {
	return v.cache.Len()
}
