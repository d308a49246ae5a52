package relay

import (
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-addon/internal/http/response"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/metrics"
)

// newTestRelay points a relay at a TLS upstream. The upstream host is allowed
// as an extra host because targets are always upgraded to https.
func newTestRelay(t *testing.T, handler http.HandlerFunc) (*Relay, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(upstream.Close)

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	rl := New(Config{Client: upstream.Client()}, NewAllowlist(false, []string{u.Hostname()}), logger.Discard())
	return rl, upstream, &hits
}

func relayRequest(method, path, target string) *http.Request {
	return httptest.NewRequest(method, path+"?u="+url.QueryEscape(target), nil)
}

func TestAllowlist(t *testing.T) {
	a := NewAllowlist(false, []string{" Mirror.Example.org "})

	allowed := []string{
		"https://ia601234.us.archive.org/1/items/x/01.mp3",
		"https://ia800.us.archive.org/x.mp3",
		"http://archive.org/download/x/01.mp3",
		"https://www.archive.org/services/img/x",
		"https://covers.openlibrary.org/b/id/1-L.jpg",
		"https://librivox.org/x/cover.jpg",
		"https://www.librivox.org/x",
		"https://mirror.example.org/a.mp3",
		"https://archive.org:443/x",
	}
	for _, u := range allowed {
		assert.True(t, a.Allowed(u), u)
	}

	denied := []string{
		"https://evil.example.com/x.mp3",
		"https://ia12.us.archive.org/x.mp3",
		"https://iaxyz.us.archive.org/x.mp3",
		"https://ia601234.us.archive.org.evil.com/x.mp3",
		"https://audioaz.com/x.mp3",
		"ftp://archive.org/x",
		"not a url",
		"",
	}
	for _, u := range denied {
		assert.False(t, a.Allowed(u), u)
	}
}

func TestAllowlist_Scraped(t *testing.T) {
	a := NewAllowlist(true, nil)
	assert.True(t, a.Allowed("https://audioaz.com/x.mp3"))
	assert.True(t, a.Allowed("https://www.audioaz.com/x.mp3"))
}

// errorCode decodes the machine-readable code from a relay error body.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Code
}

func TestProxy_MissingTarget(t *testing.T) {
	rl, _, hits := newTestRelay(t, func(http.ResponseWriter, *http.Request) {})

	w := httptest.NewRecorder()
	rl.Proxy(w, httptest.NewRequest(http.MethodGet, "/proxy", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", errorCode(t, w))
	assert.Equal(t, int32(0), hits.Load())
}

func TestProxy_DisallowedHostMakesNoUpstreamCall(t *testing.T) {
	rl, _, hits := newTestRelay(t, func(http.ResponseWriter, *http.Request) {})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", "https://evil.example.com/x.mp3"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	assert.Equal(t, int32(0), hits.Load())
}

func TestProxy_StreamsAndCopiesHeaders(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", "5")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Disposition", `inline; filename="01.mp3"`)
		w.Header().Set("X-Internal", "secret")
		_, _ = w.Write([]byte("hello"))
	})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", upstream.URL+"/01.mp3"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "5", w.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, `inline; filename="01.mp3"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Timing-Allow-Origin"))
	assert.Empty(t, w.Header().Get("X-Internal"))
}

func TestProxy_HTTPTargetUpgraded(t *testing.T) {
	rl, upstream, hits := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	plain := strings.Replace(upstream.URL, "https://", "http://", 1)
	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", plain+"/a.mp3"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestProxy_RangeMirrors206(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=2-4", r.Header.Get("Range"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Range", "bytes 2-4/10")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("llo"))
	})

	req := relayRequest(http.MethodGet, "/proxy", upstream.URL+"/01.mp3")
	req.Header.Set("Range", "bytes=2-4")
	w := httptest.NewRecorder()
	rl.Proxy(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "llo", w.Body.String())
	assert.Equal(t, "bytes 2-4/10", w.Header().Get("Content-Range"))
}

func TestProxy_UpstreamErrorMirroredWithEmptyBody(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not here"))
	})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", upstream.URL+"/missing.mp3"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxy_NetworkFailure(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(http.ResponseWriter, *http.Request) {})
	target := upstream.URL + "/a.mp3"
	upstream.Close()

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", target))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "BAD_GATEWAY", errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "connect", "transport detail must not reach the client")
}

func TestProxy_RedirectOutsideAllowlistBlocked(t *testing.T) {
	rl, upstream, hits := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "https://evil.example.com/payload", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("fine"))
	})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", upstream.URL+"/start"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestProxy_RedirectInsideAllowlistFollowed(t *testing.T) {
	rl, upstream, hits := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/final.mp3", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("final"))
	})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodGet, "/proxy", upstream.URL+"/start"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final", w.Body.String())
	assert.Equal(t, int32(2), hits.Load())
}

func TestProxy_Head(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", "1234")
	})

	w := httptest.NewRecorder()
	rl.Proxy(w, relayRequest(http.MethodHead, "/proxy", upstream.URL+"/01.mp3"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1234", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())
}

func TestPreflight(t *testing.T) {
	rl := New(Config{}, NewAllowlist(false, nil), logger.Discard())

	w := httptest.NewRecorder()
	rl.Preflight(w, httptest.NewRequest(http.MethodOptions, "/proxy", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,HEAD,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Range, Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Body.String())
}

func TestImage(t *testing.T) {
	rl, upstream, _ := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page.html" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg"))
	})

	w := httptest.NewRecorder()
	rl.Image(w, relayRequest(http.MethodGet, "/img", upstream.URL+"/cover.jpg"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	rl.Image(w, relayRequest(http.MethodGet, "/img", upstream.URL+"/page.html"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA", errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "<html>")

	w = httptest.NewRecorder()
	rl.Image(w, relayRequest(http.MethodGet, "/img", "https://evil.example.com/x.jpg"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestProxy_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("abc"))
	}))
	defer upstream.Close()
	u, _ := url.Parse(upstream.URL)

	rl := New(Config{Client: upstream.Client(), Metrics: m}, NewAllowlist(false, []string{u.Hostname()}), logger.Discard())

	rl.Proxy(httptest.NewRecorder(), relayRequest(http.MethodGet, "/proxy", upstream.URL+"/a.mp3"))
	rl.Proxy(httptest.NewRecorder(), relayRequest(http.MethodGet, "/proxy", "https://evil.example.com/a.mp3"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `listenup_addon_relay_requests_total{endpoint="proxy",status="200"} 1`)
	assert.Contains(t, body, `listenup_addon_relay_requests_total{endpoint="proxy",status="403"} 1`)
	assert.Contains(t, body, `listenup_addon_relay_bytes_total{endpoint="proxy"} 3`)
}

func TestQualify(t *testing.T) {
	assert.Equal(t,
		"http://localhost:7000/proxy?u=https%3A%2F%2Farchive.org%2Fa+b.mp3",
		ProxyURL("http://localhost:7000/", "http://archive.org/a b.mp3"))
	assert.Equal(t,
		"http://localhost:7000/img?u=https%3A%2F%2Fcovers.openlibrary.org%2Fb%2Fid%2F1-L.jpg",
		ImageURL("http://localhost:7000", "https://covers.openlibrary.org/b/id/1-L.jpg"))
	assert.Equal(t, "", ImageURL("http://localhost:7000", ""))
}
