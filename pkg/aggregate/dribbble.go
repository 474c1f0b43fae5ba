package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

// DribbbleSource lists the authenticated user's shots.
type DribbbleSource struct {
	fetcher upstream.Fetcher
	baseURL string
}

// NewDribbbleSource creates the shot source. baseURL is the shots
// listing endpoint, config.DefaultDribbbleURL in production.
func NewDribbbleSource(fetcher upstream.Fetcher, baseURL string) *DribbbleSource {
	return &DribbbleSource{fetcher: fetcher, baseURL: baseURL}
}

func (s *DribbbleSource) Name() string {
	return SourceDribbble
}

type dribbbleShot struct {
	ID     flexID `json:"id"`
	Title  string `json:"title"`
	Images struct {
		HiDPI  string `json:"hidpi"`
		Normal string `json:"normal"`
		Teaser string `json:"teaser"`
	} `json:"images"`
	HTMLURL string `json:"html_url"`
}

// Fetch lists shots with the access token in the query string.
func (s *DribbbleSource) Fetch(ctx context.Context, creds config.Credentials) ([]FeedItem, error) {
	endpoint, err := withQuery(s.baseURL, "access_token", creds.DribbbleKey)
	if err != nil {
		return nil, fmt.Errorf("dribbble url: %w", err)
	}

	resp, err := s.fetcher.Fetch(ctx, endpoint, upstream.Options{Source: SourceDribbble})
	if err != nil {
		return nil, err
	}
	if err := upstream.CheckStatus(SourceDribbble, resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var shots []dribbbleShot
	if err := json.NewDecoder(resp.Body).Decode(&shots); err != nil {
		return nil, upstream.DecodeError(SourceDribbble, err)
	}

	return normalizeDribbble(shots), nil
}

func normalizeDribbble(shots []dribbbleShot) []FeedItem {
	items := make([]FeedItem, 0, len(shots))
	for _, shot := range shots {
		items = append(items, FeedItem{
			ID:    string(shot.ID),
			Title: shot.Title,
			Image: shot.Images.Normal,
			URL:   shot.HTMLURL,
		})
	}
	return items
}

// withQuery sets one query parameter on a base URL, keeping any others.
func withQuery(base, name, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(name, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
