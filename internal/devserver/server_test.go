package devserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func startServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Opener == nil {
		opts.Opener = func(string) error { return nil }
	}
	s, err := Start(testContext(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close(testContext())) })
	return s
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_StaticFilesAndInjection(t *testing.T) {
	t.Parallel()
	root := testutil.TempProject(t, map[string]string{
		"index.html":      "<html><body><h1>Hi</h1></body></html>",
		"about/index.htm": "<html><BODY>about</BODY></html>",
		"frag.html":       "<p>fragment</p>",
		"css/style.css":   "body{}",
	})
	s := startServer(t, Options{Root: root})

	resp, body := get(t, s.URL()+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `<html><body><h1>Hi</h1><script async src="/__assetgrid/client.js"></script></body></html>`, body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")

	_, body = get(t, s.URL()+"/about/")
	assert.Equal(t, `<html><BODY>about<script async src="/__assetgrid/client.js"></script></BODY></html>`, body)

	_, body = get(t, s.URL()+"/frag.html")
	assert.Equal(t, `<p>fragment</p><script async src="/__assetgrid/client.js"></script>`, body)

	resp, body = get(t, s.URL()+"/css/style.css")
	assert.Equal(t, "body{}", body)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")

	resp, _ = get(t, s.URL()+"/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, s.URL()+"/../../etc/passwd")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_HealthAndClientScript(t *testing.T) {
	t.Parallel()
	s := startServer(t, Options{Root: t.TempDir()})

	resp, body := get(t, s.URL()+"/__assetgrid/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", body)

	resp, body = get(t, s.URL()+"/__assetgrid/client.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, body, "EIO=4")
}

func TestStart_PortInUse(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = Start(testContext(), Options{Root: t.TempDir(), Host: "127.0.0.1", Port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev server cannot listen on 127.0.0.1:"+strconv.Itoa(port))
}

func TestStart_OpensBrowser(t *testing.T) {
	t.Parallel()
	var (
		mu     sync.Mutex
		opened []string
	)
	s := startServer(t, Options{Root: t.TempDir(), Open: "local", Opener: func(url string) error {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, url)
		return nil
	}})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{s.URL()}, opened)
}

func TestServer_LiveReloadEvents(t *testing.T) {
	t.Parallel()
	root := testutil.TempProject(t, map[string]string{"index.html": "<body></body>"})
	s := startServer(t, Options{Root: root, Notify: true})

	client := testutil.DialLiveReload(t, s.URL(), EventReload, EventInject, EventNotify)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	ctx := testContext()
	s.Stream(ctx, []string{filepath.Join(root, "css", "style.css")})
	s.Stream(ctx, []string{filepath.Join(root, "css", "style.css"), filepath.Join(root, "index.html")})
	s.Notify(ctx, "css failed", "Undefined variable")

	require.Eventually(t, func() bool { return len(client.Events()) == 3 }, 5*time.Second, 10*time.Millisecond)
	events := client.Events()

	assert.Equal(t, EventInject, events[0].Name)
	require.Len(t, events[0].Args, 1)
	assert.Equal(t, []any{"/css/style.css"}, events[0].Args[0])

	assert.Equal(t, EventReload, events[1].Name)

	assert.Equal(t, EventNotify, events[2].Name)
	require.Len(t, events[2].Args, 1)
	assert.Equal(t, map[string]any{"title": "css failed", "message": "Undefined variable"}, events[2].Args[0])
}

func TestServer_NotifyDisabled(t *testing.T) {
	t.Parallel()
	s := startServer(t, Options{Root: t.TempDir()})

	client := testutil.DialLiveReload(t, s.URL(), EventNotify, EventReload)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	s.Notify(testContext(), "x", "y")
	s.Reload(testContext())

	require.Eventually(t, func() bool { return len(client.Events()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, EventReload, client.Events()[0].Name)
}

func TestServer_StreamOutsideRootReloads(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := startServer(t, Options{Root: root})

	u, ok := s.urlPath(filepath.Join(root, "css", "a.css"))
	assert.True(t, ok)
	assert.Equal(t, "/css/a.css", u)

	_, ok = s.urlPath(filepath.Join(filepath.Dir(root), "elsewhere.css"))
	assert.False(t, ok)
}
