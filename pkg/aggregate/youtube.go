package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

// MaxVideos is the number of feed entries kept, in feed order.
const MaxVideos = 6

const (
	youtubeThumbnailURL = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
	youtubeWatchURL     = "https://www.youtube.com/watch?v=%s"
	youtubeGUIDPrefix   = "yt:video:"
)

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]+)`)

// YouTubeSource reads a channel's Atom video feed.
type YouTubeSource struct {
	fetcher upstream.Fetcher
	baseURL string
}

// NewYouTubeSource creates the video-feed source. baseURL is the feed
// endpoint, config.DefaultYouTubeFeedURL in production.
func NewYouTubeSource(fetcher upstream.Fetcher, baseURL string) *YouTubeSource {
	return &YouTubeSource{fetcher: fetcher, baseURL: baseURL}
}

func (s *YouTubeSource) Name() string {
	return SourceYouTube
}

// Fetch downloads the channel feed and maps the first MaxVideos entries.
func (s *YouTubeSource) Fetch(ctx context.Context, creds config.Credentials) ([]FeedItem, error) {
	endpoint, err := withQuery(s.baseURL, "channel_id", creds.YouTubeID)
	if err != nil {
		return nil, fmt.Errorf("youtube url: %w", err)
	}

	resp, err := s.fetcher.Fetch(ctx, endpoint, upstream.Options{
		Headers: http.Header{"Accept": []string{"application/atom+xml, application/xml;q=0.9, */*;q=0.8"}},
		Source:  SourceYouTube,
	})
	if err != nil {
		return nil, err
	}
	if err := upstream.CheckStatus(SourceYouTube, resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// gofeed parsers keep per-parse state; one per call keeps sources independent.
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, upstream.DecodeError(SourceYouTube, err)
	}

	return normalizeYouTube(feed), nil
}

func normalizeYouTube(feed *gofeed.Feed) []FeedItem {
	if feed == nil {
		return []FeedItem{}
	}

	n := len(feed.Items)
	if n > MaxVideos {
		n = MaxVideos
	}

	items := make([]FeedItem, 0, n)
	for _, entry := range feed.Items[:n] {
		id := videoID(entry)
		items = append(items, FeedItem{
			ID:    id,
			Title: entry.Title,
			Image: fmt.Sprintf(youtubeThumbnailURL, id),
			URL:   fmt.Sprintf(youtubeWatchURL, id),
		})
	}
	return items
}

// videoID reads yt:videoId, falling back to the entry id and the watch link.
func videoID(item *gofeed.Item) string {
	if values := item.Extensions["yt"]["videoId"]; len(values) > 0 {
		if id := strings.TrimSpace(values[0].Value); id != "" {
			return id
		}
	}
	if strings.HasPrefix(item.GUID, youtubeGUIDPrefix) {
		return strings.TrimPrefix(item.GUID, youtubeGUIDPrefix)
	}
	if matches := videoIDPattern.FindStringSubmatch(item.Link); len(matches) > 1 {
		return matches[1]
	}
	return ""
}
