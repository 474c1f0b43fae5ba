package cache

import (
	"net/http"
	"time"
)

// Entry is a stored HTTP response.
type Entry struct {
	// Data is the response body, replayed byte for byte on a hit.
	Data []byte `json:"data"`

	// StatusCode of the stored response.
	StatusCode int `json:"status_code"`

	// Headers of the stored response, including Cache-Control.
	Headers http.Header `json:"headers"`

	// CachedAt is when the response was computed.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the store may drop the entry.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true once the store-level expiry has passed.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was computed.
func (e *Entry) Age(now time.Time) time.Duration {
	age := now.Sub(e.CachedAt)
	if age < 0 {
		return 0
	}
	return age
}

// MaxAge returns the freshness lifetime declared by the entry's
// Cache-Control header. Entries without one fall back to Expires-CachedAt.
func (e *Entry) MaxAge() time.Duration {
	if maxAge, ok := ParseMaxAge(e.Headers.Get("Cache-Control")); ok {
		return maxAge
	}
	return e.Expires.Sub(e.CachedAt)
}

// IsFresh reports whether the entry may still be served at now.
// This is checked in addition to the store's own TTL handling.
func (e *Entry) IsFresh(now time.Time) bool {
	return e.Age(now) < e.MaxAge()
}

// clone returns a deep copy so callers can't mutate stored state.
func (e *Entry) clone() *Entry {
	c := *e
	c.Data = append([]byte(nil), e.Data...)
	c.Headers = e.Headers.Clone()
	return &c
}
