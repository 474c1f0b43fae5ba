package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FeedItem is the normalized unit every source is mapped to.
type FeedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	URL   string `json:"url"`
}

// Result is the combined aggregate. Field order fixes the JSON key order;
// every list is non-nil so it encodes as [] rather than null.
type Result struct {
	Behance  []FeedItem `json:"behance"`
	Dribbble []FeedItem `json:"dribbble"`
	YouTube  []FeedItem `json:"youtube"`
}

// NewResult returns a Result with three empty lists.
func NewResult() *Result {
	return &Result{
		Behance:  []FeedItem{},
		Dribbble: []FeedItem{},
		YouTube:  []FeedItem{},
	}
}

// flexID accepts an id encoded either as a JSON number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}
