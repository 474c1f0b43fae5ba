package aggregate

import (
	"context"

	"github.com/Sternrassler/portfolio-edge/pkg/config"
)

// Source names, also used as metric and log labels.
const (
	SourceBehance  = "behance"
	SourceDribbble = "dribbble"
	SourceYouTube  = "youtube"
)

// Source fetches and normalizes one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context, creds config.Credentials) ([]FeedItem, error)
}

// outcome is the settled result of one source.
type outcome struct {
	items []FeedItem
	err   error
}
