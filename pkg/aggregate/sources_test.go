package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/portfolio-edge/internal/testutil"
	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

func newTestFetcher(t *testing.T) *upstream.Client {
	t.Helper()
	client, err := upstream.New(upstream.Config{UserAgent: config.DefaultUserAgent, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("upstream.New failed: %v", err)
	}
	return client
}

func testCredentials(mock *testutil.MockUpstream) config.Credentials {
	return config.Credentials{
		BehanceID:    "studio",
		BehanceKey:   "bkey",
		BehanceProxy: mock.BehanceURL(),
		DribbbleKey:  "dtoken",
		YouTubeID:    "UC123",
	}
}

func TestFlexID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`123`, "123"},
		{`"abc"`, "abc"},
		{`12345678901234567890`, "12345678901234567890"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id flexID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if string(id) != tt.want {
				t.Errorf("flexID = %q, want %q", id, tt.want)
			}
		})
	}

	var id flexID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("Unmarshal of object should fail")
	}
}

func TestBehanceSource_Fetch(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var gotBody, gotMethod, gotContentType string
	mock.SetHandler(testutil.BehancePath, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.BehanceProjectsJSON))
	})

	source := NewBehanceSource(newTestFetcher(t))
	items, err := source.Fetch(context.Background(), testCredentials(mock))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody != `{"user":"studio","api_key":"bkey"}` {
		t.Errorf("payload = %s", gotBody)
	}

	want := []FeedItem{
		{ID: "101", Title: "Brand Refresh", Image: "https://cdn.example.com/101_404.jpg", URL: "https://www.behance.net/gallery/101/Brand-Refresh"},
		{ID: "102", Title: "Poster Series", Image: "https://cdn.example.com/102_404.jpg", URL: "https://www.behance.net/gallery/102/Poster-Series"},
	}
	assertItems(t, items, want)
}

func TestBehanceSource_MissingCoverVariant(t *testing.T) {
	items := normalizeBehance([]behanceProject{{
		ID:     "7",
		Name:   "No covers",
		Covers: map[string]string{"original": "https://cdn.example.com/7.jpg"},
		URL:    "https://www.behance.net/gallery/7",
	}})

	if items[0].Image != "" {
		t.Errorf("Image = %q, want empty when the 404 variant is absent", items[0].Image)
	}
}

func TestDribbbleSource_Fetch(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.DribbblePath, testutil.NewJSONResponse(testutil.DribbbleShotsJSON))

	source := NewDribbbleSource(newTestFetcher(t), mock.DribbbleURL())
	items, err := source.Fetch(context.Background(), testCredentials(mock))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	req := mock.LastRequest(testutil.DribbblePath)
	if req == nil {
		t.Fatal("no request reached the dribbble endpoint")
	}
	if got := req.URL.Query().Get("access_token"); got != "dtoken" {
		t.Errorf("access_token = %q, want dtoken", got)
	}
	if got := req.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}

	want := []FeedItem{
		{ID: "201", Title: "Logo Motion", Image: "https://cdn.dribbble.com/201.png", URL: "https://dribbble.com/shots/201-Logo-Motion"},
		{ID: "202", Title: "Icon Set", Image: "https://cdn.dribbble.com/202.png", URL: "https://dribbble.com/shots/202-Icon-Set"},
	}
	assertItems(t, items, want)
}

func TestDribbbleSource_KeepsExistingQuery(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.DribbblePath, testutil.NewJSONResponse(`[]`))

	source := NewDribbbleSource(newTestFetcher(t), mock.DribbbleURL()+"?per_page=12")
	items, err := source.Fetch(context.Background(), testCredentials(mock))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil", items)
	}

	q := mock.LastRequest(testutil.DribbblePath).URL.Query()
	if q.Get("per_page") != "12" || q.Get("access_token") != "dtoken" {
		t.Errorf("query = %v", q)
	}
}

func TestDribbbleSource_Errors(t *testing.T) {
	tests := []struct {
		name      string
		response  testutil.MockResponse
		wantClass upstream.ErrorClass
	}{
		{"unauthorized", testutil.NewUnauthorizedResponse(), upstream.ErrorClassClient},
		{"server error", testutil.NewServerErrorResponse(), upstream.ErrorClassServer},
		{"malformed json", testutil.NewJSONResponse(`{"not": "an array"`), upstream.ErrorClassDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			mock.SetResponse(testutil.DribbblePath, tt.response)

			source := NewDribbbleSource(newTestFetcher(t), mock.DribbbleURL())
			_, err := source.Fetch(context.Background(), testCredentials(mock))

			var upErr *upstream.Error
			if !errors.As(err, &upErr) {
				t.Fatalf("error = %v, want *upstream.Error", err)
			}
			if upErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", upErr.ErrorClass, tt.wantClass)
			}
		})
	}
}

func TestYouTubeSource_TakesFirstSix(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.YouTubePath, testutil.NewFeedResponse(testutil.YouTubeFeed(10)))

	source := NewYouTubeSource(newTestFetcher(t), mock.YouTubeURL())
	items, err := source.Fetch(context.Background(), testCredentials(mock))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(items) != MaxVideos {
		t.Fatalf("len(items) = %d, want %d", len(items), MaxVideos)
	}

	for i, item := range items {
		id := testutil.VideoID(i)
		if item.ID != id {
			t.Errorf("items[%d].ID = %q, want %q (feed order)", i, item.ID, id)
		}
		if want := fmt.Sprintf("Video %d", i); item.Title != want {
			t.Errorf("items[%d].Title = %q, want %q", i, item.Title, want)
		}
		if want := "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"; item.Image != want {
			t.Errorf("items[%d].Image = %q, want %q", i, item.Image, want)
		}
		if want := "https://www.youtube.com/watch?v=" + id; item.URL != want {
			t.Errorf("items[%d].URL = %q, want %q", i, item.URL, want)
		}
	}

	if got := mock.LastRequest(testutil.YouTubePath).URL.Query().Get("channel_id"); got != "UC123" {
		t.Errorf("channel_id = %q", got)
	}
}

func TestYouTubeSource_FewerThanSix(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.YouTubePath, testutil.NewFeedResponse(testutil.YouTubeFeed(2)))

	source := NewYouTubeSource(newTestFetcher(t), mock.YouTubeURL())
	items, err := source.Fetch(context.Background(), testCredentials(mock))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestYouTubeSource_NotXML(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.YouTubePath, testutil.NewFeedResponse("this is not a feed"))

	source := NewYouTubeSource(newTestFetcher(t), mock.YouTubeURL())
	_, err := source.Fetch(context.Background(), testCredentials(mock))

	var upErr *upstream.Error
	if !errors.As(err, &upErr) || upErr.ErrorClass != upstream.ErrorClassDecode {
		t.Errorf("error = %v, want decode error", err)
	}
}

func TestYouTubeSource_AcceptOverride(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.YouTubePath, testutil.NewFeedResponse(testutil.YouTubeFeed(1)))

	source := NewYouTubeSource(newTestFetcher(t), mock.YouTubeURL())
	if _, err := source.Fetch(context.Background(), testCredentials(mock)); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	req := mock.LastRequest(testutil.YouTubePath)
	if !strings.Contains(req.Header.Get("Accept"), "application/atom+xml") {
		t.Errorf("Accept = %q, want atom override", req.Header.Get("Accept"))
	}
	if req.Header.Get("User-Agent") != config.DefaultUserAgent {
		t.Errorf("User-Agent = %q", req.Header.Get("User-Agent"))
	}
}

func assertItems(t *testing.T, got, want []FeedItem) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len(items) = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
