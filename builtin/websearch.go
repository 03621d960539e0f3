package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/justinlietz93/streamtool"
)

const searchEndpoint = "https://api.duckduckgo.com/"

type webSearchArgs struct {
	Query      string  `json:"query" jsonschema:"description=Search query"`
	MaxResults float64 `json:"max_results,omitempty" jsonschema:"description=Maximum results to return (default 5)"`
}

type duckResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// WebSearch returns the descriptor for the web_search tool, backed by the
// DuckDuckGo instant answer API.
func WebSearch() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("web_search", "Search the web and return top results.",
		func(ctx context.Context, a webSearchArgs) (*streamtool.Result, error) {
			if a.Query == "" {
				return nil, &streamtool.CallError{Reason: "query is required", Err: streamtool.ErrValidation}
			}
			limit := int(a.MaxResults)
			if limit <= 0 {
				limit = 5
			}

			q := url.Values{}
			q.Set("q", a.Query)
			q.Set("format", "json")
			q.Set("no_html", "1")
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+q.Encode(), nil)
			if err != nil {
				return nil, err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("search returned %s", resp.Status)
			}
			data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPBody))
			if err != nil {
				return nil, err
			}

			var dr duckResponse
			if err := json.Unmarshal(data, &dr); err != nil {
				return nil, fmt.Errorf("decode search response: %w", err)
			}
			var lines []string
			if dr.AbstractText != "" {
				lines = append(lines, dr.AbstractText+" ("+dr.AbstractURL+")")
			}
			for _, t := range dr.RelatedTopics {
				if len(lines) >= limit {
					break
				}
				if t.Text != "" {
					lines = append(lines, t.Text+" ("+t.FirstURL+")")
				}
			}
			if len(lines) == 0 {
				lines = append(lines, "no results for "+a.Query)
			}
			return &streamtool.Result{Content: strings.Join(lines, "\n"), Data: lines}, nil
		})
}
