package cache

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by request identity. The method is not
// part of the key, so a DELETE addresses the entry its GET stored.
type Key struct {
	// Host of the inbound request, lower-cased.
	Host string
	// Path of the inbound request.
	Path string
	// Query parameters of the inbound request.
	Query url.Values
}

// KeyFromRequest derives the cache key for an inbound request.
func KeyFromRequest(r *http.Request) Key {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	return Key{
		Host:  strings.ToLower(host),
		Path:  r.URL.Path,
		Query: r.URL.Query(),
	}
}

// String generates a deterministic key string.
// Format: edge:host/path:query1=val1,val2:query2=val
//
// Example:
//
//	edge:portfolio.example.com/:lang=en
func (k Key) String() string {
	parts := []string{"edge"}

	path := k.Path
	if path == "" {
		path = "/"
	}
	parts = append(parts, k.Host+path)

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
