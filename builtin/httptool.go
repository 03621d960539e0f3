package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/justinlietz93/streamtool"
)

const maxHTTPBody = 64 * 1024

type httpArgs struct {
	Method  string            `json:"method" jsonschema:"description=HTTP method: GET POST PUT DELETE HEAD"`
	URL     string            `json:"url" jsonschema:"description=Absolute URL to request"`
	Body    string            `json:"body,omitempty" jsonschema:"description=Optional request body"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Optional request headers"`
}

// Validate implements streamtool.Validatable.
func (a httpArgs) Validate() error {
	switch strings.ToUpper(a.Method) {
	case "GET", "POST", "PUT", "DELETE", "HEAD", "PATCH":
	default:
		return fmt.Errorf("unsupported method %q", a.Method)
	}
	if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	return nil
}

// HTTPRequest returns the descriptor for the http_request tool. The response
// body is capped at 64KB so a large download cannot flood the stream.
func HTTPRequest() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("http_request", "Perform an HTTP request and return status and body.",
		func(ctx context.Context, a httpArgs) (*streamtool.Result, error) {
			var body io.Reader
			if a.Body != "" {
				body = strings.NewReader(a.Body)
			}
			req, err := http.NewRequestWithContext(ctx, strings.ToUpper(a.Method), a.URL, body)
			if err != nil {
				return nil, err
			}
			for k, v := range a.Headers {
				req.Header.Set(k, v)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPBody))
			if err != nil {
				return nil, err
			}
			return &streamtool.Result{
				Content: fmt.Sprintf("%s\n%s", resp.Status, data),
				Data: map[string]any{
					"status": resp.StatusCode,
					"body":   string(data),
				},
			}, nil
		})
}
