package builtin

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPArgs_Validate(t *testing.T) {
	assert.NoError(t, httpArgs{Method: "get", URL: "http://example.com"}.Validate())
	assert.NoError(t, httpArgs{Method: "POST", URL: "https://example.com"}.Validate())

	err := httpArgs{Method: "TRACE", URL: "http://example.com"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported method")

	err = httpArgs{Method: "GET", URL: "ftp://example.com"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http://")
}

func TestHTTPRequest_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		io.WriteString(w, "pong")
	}))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	desc, err := HTTPRequest()
	require.NoError(t, err)
	res, err := runTool(t, desc, map[string]any{
		"method":  "GET",
		"url":     srv.URL,
		"headers": map[string]any{"X-Test": "yes"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "200 OK")
	assert.Contains(t, res.Content, "pong")

	data := res.Data.(map[string]any)
	assert.Equal(t, 200, data["status"])
	assert.Equal(t, "pong", data["body"])
}

func TestHTTPRequest_POSTBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"n":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	desc, err := HTTPRequest()
	require.NoError(t, err)
	res, err := runTool(t, desc, map[string]any{
		"method": "post",
		"url":    srv.URL,
		"body":   `{"n":1}`,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "201 Created")
}

func TestHTTPRequest_InvalidArgs(t *testing.T) {
	desc, err := HTTPRequest()
	require.NoError(t, err)

	_, err = runTool(t, desc, map[string]any{"method": "GET", "url": "not-a-url"})
	require.Error(t, err)
}
