package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"
)

// CORSPolicy is the static CORS header table. Preflights are answered
// with it verbatim; rs/cors applies the same table to actual requests.
type CORSPolicy struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// DefaultCORSPolicy allows any origin to read and invalidate the aggregate.
func DefaultCORSPolicy() CORSPolicy {
	return CORSPolicy{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}
}

// Headers renders the table as response headers.
func (p CORSPolicy) Headers() http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", strings.Join(p.AllowedOrigins, ", "))
	h.Set("Access-Control-Allow-Methods", strings.Join(p.AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(p.AllowedHeaders, ", "))
	if p.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(p.MaxAge))
	}
	return h
}

// Handler wraps next with rs/cors. Preflights are passed through so the
// router can answer every OPTIONS with the full table.
func (p CORSPolicy) Handler(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:     p.AllowedOrigins,
		AllowedMethods:     p.AllowedMethods,
		AllowedHeaders:     p.AllowedHeaders,
		MaxAge:             p.MaxAge,
		OptionsPassthrough: true,
	}).Handler(next)
}

// writePreflight answers OPTIONS with the header table and an empty body.
func (p CORSPolicy) writePreflight(w http.ResponseWriter) {
	for key, values := range p.Headers() {
		w.Header()[key] = values
	}
	w.WriteHeader(http.StatusOK)
}
