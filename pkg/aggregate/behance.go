package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

// behanceCoverSize is the fixed-resolution cover variant exposed as image.
const behanceCoverSize = "404"

// BehanceSource reads projects through the caller-controlled proxy, which
// holds the server-side half of the Behance integration.
type BehanceSource struct {
	fetcher upstream.Fetcher
}

// NewBehanceSource creates the design-portfolio source.
func NewBehanceSource(fetcher upstream.Fetcher) *BehanceSource {
	return &BehanceSource{fetcher: fetcher}
}

func (s *BehanceSource) Name() string {
	return SourceBehance
}

type behanceRequest struct {
	User   string `json:"user"`
	APIKey string `json:"api_key"`
}

type behanceProject struct {
	ID     flexID            `json:"id"`
	Name   string            `json:"name"`
	Covers map[string]string `json:"covers"`
	URL    string            `json:"url"`
}

type behanceResponse struct {
	Projects []behanceProject `json:"projects"`
}

// Fetch posts the credential payload to the proxy and maps the projects.
func (s *BehanceSource) Fetch(ctx context.Context, creds config.Credentials) ([]FeedItem, error) {
	payload, err := json.Marshal(behanceRequest{
		User:   creds.BehanceID,
		APIKey: creds.BehanceKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encode behance payload: %w", err)
	}

	resp, err := s.fetcher.Fetch(ctx, creds.BehanceProxy, upstream.Options{
		Method:  http.MethodPost,
		Headers: http.Header{"Content-Type": []string{"application/json"}},
		Body:    bytes.NewReader(payload),
		Source:  SourceBehance,
	})
	if err != nil {
		return nil, err
	}
	if err := upstream.CheckStatus(SourceBehance, resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body behanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, upstream.DecodeError(SourceBehance, err)
	}

	return normalizeBehance(body.Projects), nil
}

func normalizeBehance(projects []behanceProject) []FeedItem {
	items := make([]FeedItem, 0, len(projects))
	for _, p := range projects {
		items = append(items, FeedItem{
			ID:    string(p.ID),
			Title: p.Name,
			Image: p.Covers[behanceCoverSize],
			URL:   p.URL,
		})
	}
	return items
}
