package cache

import "time"

// Entry represents a cached page response body.
type Entry struct {
	// Data is the raw response body.
	Data []byte `json:"data"`

	// CachedAt is when the response was stored.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has passed its TTL.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
