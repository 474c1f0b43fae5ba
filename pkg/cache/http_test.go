package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCacheControl(t *testing.T) {
	tests := []struct {
		lifetime time.Duration
		want     string
	}{
		{24 * time.Hour, "public, max-age=86400"},
		{time.Minute, "public, max-age=60"},
		{1500 * time.Millisecond, "public, max-age=1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := CacheControl(tt.lifetime); got != tt.want {
				t.Errorf("CacheControl(%v) = %q, want %q", tt.lifetime, got, tt.want)
			}
		})
	}
}

func TestParseMaxAge(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
		wantOK bool
	}{
		{"public with max-age", "public, max-age=86400", 24 * time.Hour, true},
		{"max-age only", "max-age=60", time.Minute, true},
		{"case insensitive", "Public, Max-Age=30", 30 * time.Second, true},
		{"quoted", `max-age="10"`, 10 * time.Second, true},
		{"s-maxage is ignored", "s-maxage=10", 0, false},
		{"empty", "", 0, false},
		{"no-store", "no-store", 0, false},
		{"garbage value", "max-age=soon", 0, false},
		{"negative", "max-age=-5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMaxAge(tt.header)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseMaxAge(%q) = %v, %v; want %v, %v", tt.header, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewEntry(t *testing.T) {
	headers := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"message":"ok"}`)

	entry := NewEntry(http.StatusOK, headers, body, DefaultLifetime)

	if got := entry.Headers.Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", got)
	}
	if headers.Get("Cache-Control") != "" {
		t.Error("NewEntry mutated the caller's headers")
	}
	if string(entry.Data) != string(body) {
		t.Errorf("Data = %q, want %q", entry.Data, body)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", entry.StatusCode)
	}
	if got := entry.Expires.Sub(entry.CachedAt); got != DefaultLifetime {
		t.Errorf("Expires-CachedAt = %v, want %v", got, DefaultLifetime)
	}
	if !entry.IsFresh(time.Now()) {
		t.Error("new entry should be fresh")
	}
}

func TestNewEntry_NilHeaders(t *testing.T) {
	entry := NewEntry(http.StatusOK, nil, nil, time.Minute)
	if entry.Headers.Get("Cache-Control") != "public, max-age=60" {
		t.Errorf("Cache-Control = %q", entry.Headers.Get("Cache-Control"))
	}
}

func TestWriteEntry(t *testing.T) {
	now := time.Now()
	entry := &Entry{
		Data:       []byte(`{"cached":true}`),
		StatusCode: http.StatusOK,
		Headers: http.Header{
			"Content-Type":  []string{"application/json"},
			"Cache-Control": []string{"public, max-age=86400"},
		},
		CachedAt: now.Add(-42 * time.Second),
	}

	w := httptest.NewRecorder()
	if err := WriteEntry(w, entry, now); err != nil {
		t.Fatalf("WriteEntry() error: %v", err)
	}

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Age"); got != "42" {
		t.Errorf("Age = %q, want 42", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", got)
	}
	if w.Body.String() != `{"cached":true}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestWriteEntry_Nil(t *testing.T) {
	if err := WriteEntry(httptest.NewRecorder(), nil, time.Now()); err == nil {
		t.Error("WriteEntry(nil) should return error")
	}
}
