// Package testutil provides a mock upstream server and payload fixtures.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Paths served by MockUpstream for each source.
const (
	BehancePath  = "/behance"
	DribbblePath = "/dribbble/shots"
	YouTubePath  = "/youtube/feed"
)

// MockResponse defines the behavior for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable stand-in for all three upstreams.
type MockUpstream struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	counts   map[string]int
	last     map[string]*http.Request
}

// NewMockUpstream creates a mock server answering 404 for unknown paths.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		counts:   make(map[string]int),
		last:     make(map[string]*http.Request),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.counts[r.URL.Path]++
		mock.last[r.URL.Path] = r.Clone(r.Context())
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// BehanceURL, DribbbleURL and YouTubeURL return per-source endpoints.
func (m *MockUpstream) BehanceURL() string  { return m.server.URL + BehancePath }
func (m *MockUpstream) DribbbleURL() string { return m.server.URL + DribbblePath }
func (m *MockUpstream) YouTubeURL() string  { return m.server.URL + YouTubePath }

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.last = make(map[string]*http.Request)
}

// SetHandler sets a custom handler for a path.
func (m *MockUpstream) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a static response for a path.
func (m *MockUpstream) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to path.
func (m *MockUpstream) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// TotalRequests returns the number of requests made to any path.
func (m *MockUpstream) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// LastRequest returns a copy of the last request made to path, or nil.
func (m *MockUpstream) LastRequest(path string) *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last[path]
}

// ServeAll configures healthy responses for all three sources.
func (m *MockUpstream) ServeAll() {
	m.SetResponse(BehancePath, NewJSONResponse(BehanceProjectsJSON))
	m.SetResponse(DribbblePath, NewJSONResponse(DribbbleShotsJSON))
	m.SetResponse(YouTubePath, NewFeedResponse(YouTubeFeed(3)))
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewFeedResponse creates a 200 OK Atom response.
func NewFeedResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=UTF-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewUnauthorizedResponse creates a 401 response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"message": "Bad credentials"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// BehanceProjectsJSON is a proxy answer with two projects.
const BehanceProjectsJSON = `{
  "projects": [
    {
      "id": 101,
      "name": "Brand Refresh",
      "covers": {"115": "https://cdn.example.com/101_115.jpg", "404": "https://cdn.example.com/101_404.jpg"},
      "url": "https://www.behance.net/gallery/101/Brand-Refresh"
    },
    {
      "id": 102,
      "name": "Poster Series",
      "covers": {"404": "https://cdn.example.com/102_404.jpg", "original": "https://cdn.example.com/102.jpg"},
      "url": "https://www.behance.net/gallery/102/Poster-Series"
    }
  ]
}`

// DribbbleShotsJSON is a shots listing with two shots.
const DribbbleShotsJSON = `[
  {
    "id": 201,
    "title": "Logo Motion",
    "images": {"hidpi": "https://cdn.dribbble.com/201_2x.png", "normal": "https://cdn.dribbble.com/201.png", "teaser": "https://cdn.dribbble.com/201_teaser.png"},
    "html_url": "https://dribbble.com/shots/201-Logo-Motion"
  },
  {
    "id": 202,
    "title": "Icon Set",
    "images": {"hidpi": null, "normal": "https://cdn.dribbble.com/202.png", "teaser": "https://cdn.dribbble.com/202_teaser.png"},
    "html_url": "https://dribbble.com/shots/202-Icon-Set"
  }
]`

// VideoID returns the id used for the i-th generated feed entry.
func VideoID(i int) string {
	return fmt.Sprintf("vid%02d_abcXYZ", i)
}

// YouTubeFeed renders a channel feed with n entries.
func YouTubeFeed(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <link rel="self" href="http://www.youtube.com/feeds/videos.xml?channel_id=UC123"/>
 <id>yt:channel:UC123</id>
 <yt:channelId>UC123</yt:channelId>
 <title>Studio Channel</title>
 <author>
  <name>Studio Channel</name>
  <uri>https://www.youtube.com/channel/UC123</uri>
 </author>
 <published>2020-01-01T00:00:00+00:00</published>
`)
	for i := 0; i < n; i++ {
		id := VideoID(i)
		fmt.Fprintf(&b, ` <entry>
  <id>yt:video:%[1]s</id>
  <yt:videoId>%[1]s</yt:videoId>
  <yt:channelId>UC123</yt:channelId>
  <title>Video %[2]d</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=%[1]s"/>
  <author>
   <name>Studio Channel</name>
   <uri>https://www.youtube.com/channel/UC123</uri>
  </author>
  <published>2024-01-%02[3]dT12:00:00+00:00</published>
  <updated>2024-01-%02[3]dT12:00:00+00:00</updated>
  <media:group>
   <media:title>Video %[2]d</media:title>
   <media:thumbnail url="https://i1.ytimg.com/vi/%[1]s/hqdefault.jpg" width="480" height="360"/>
  </media:group>
 </entry>
`, id, i, i+1)
	}
	b.WriteString("</feed>\n")
	return b.String()
}
