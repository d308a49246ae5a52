package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-addon/internal/ratelimit"
)

func TestIsHTTPOrHTTPS(t *testing.T) {
	tests := []struct {
		url   string
		allow bool
	}{
		{"http://example.com/", true},
		{"https://example.com/path", true},
		{"HTTPS://x", true},
		{"file:///etc/passwd", false},
		{"ftp://example.com", false},
		{"", false},
		{"not-a-url", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allow, IsHTTPOrHTTPS(tt.url), tt.url)
	}
}

func TestToHTTPS(t *testing.T) {
	assert.Equal(t, "https://archive.org/a.mp3", ToHTTPS("http://archive.org/a.mp3"))
	assert.Equal(t, "https://archive.org/a.mp3", ToHTTPS("HTTP://archive.org/a.mp3"))
	assert.Equal(t, "https://archive.org/a.mp3", ToHTTPS("https://archive.org/a.mp3"))
	assert.Equal(t, "ftp://x", ToHTTPS("ftp://x"))
	assert.Equal(t, "", ToHTTPS(""))
}

func TestRequester_Get(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	r := &Requester{
		Client:    WithTimeout(time.Second),
		Limiter:   ratelimit.New(100, 10),
		UserAgent: "test-agent",
	}

	resp, err := r.Get(context.Background(), server.URL, "application/json")
	require.NoError(t, err)
	body, err := ReadBody(resp)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "application/json", gotAccept)
}

func TestRequester_DefaultUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := (&Requester{}).Get(context.Background(), server.URL, "")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestRequester_RejectsScheme(t *testing.T) {
	r := &Requester{Client: WithTimeout(time.Second)}

	_, err := r.Get(context.Background(), "file:///etc/passwd", "")
	assert.ErrorIs(t, err, ErrScheme)
}
