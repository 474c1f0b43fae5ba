package cache

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultLifetime is the freshness lifetime of aggregate responses.
const DefaultLifetime = 24 * time.Hour

// CacheControl renders the header value for a public response with the
// given lifetime, e.g. "public, max-age=86400".
func CacheControl(lifetime time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int64(lifetime/time.Second))
}

// ParseMaxAge extracts the max-age directive from a Cache-Control value.
func ParseMaxAge(cacheControl string) (time.Duration, bool) {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		seconds, err := strconv.ParseInt(strings.Trim(value, `"`), 10, 64)
		if err != nil || seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}

// NewEntry builds an entry for a computed response and stamps its
// Cache-Control header with the lifetime.
func NewEntry(statusCode int, headers http.Header, body []byte, lifetime time.Duration) *Entry {
	now := time.Now()

	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Cache-Control", CacheControl(lifetime))

	return &Entry{
		Data:       append([]byte(nil), body...),
		StatusCode: statusCode,
		Headers:    h,
		CachedAt:   now,
		Expires:    now.Add(lifetime),
	}
}

// WriteEntry replays a stored response, adding an Age header.
func WriteEntry(w http.ResponseWriter, entry *Entry, now time.Time) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	for key, values := range entry.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Age", strconv.FormatInt(int64(entry.Age(now)/time.Second), 10))

	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if _, err := w.Write(entry.Data); err != nil {
		return fmt.Errorf("write cached body: %w", err)
	}
	return nil
}
