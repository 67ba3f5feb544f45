package serve

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artblog/internal/build"
	"artblog/internal/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newSite(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "artblog.yml"), `
author: Jo
base_url: https://art.example.com
sources: [posts]
output: public
pages_folder: pages
pages_order: [index.md]
`)
	writeFile(t, filepath.Join(dir, "pages", "index.md"), "---\ntitle: Home\n---\n")
	writeFile(t, filepath.Join(dir, "posts", "first.md"), "---\ntitle: First Light\ncategory: painting\n---\nDawn.\n")

	cfg, err := config.Load(filepath.Join(dir, "artblog.yml"))
	require.NoError(t, err)
	return cfg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerServesOutputWithReloadScript(t *testing.T) {
	s := New(newSite(t), build.Options{}, nil, nil)
	require.NoError(t, s.Rebuild(context.Background(), false))
	h := s.Handler()

	rec := get(t, h, "/first-light/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<h1 id="first-light">First Light</h1>`)
	assert.Contains(t, body, eventsPath)
	assert.Less(t, strings.Index(body, eventsPath), strings.Index(body, "</body>"))

	rec = get(t, h, "/css/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), eventsPath)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.html").Code)

	rec = get(t, h, "/metrics")
	assert.Contains(t, rec.Body.String(), "artblog_build_outcomes_total")
}

func TestRebuildReloadsConfig(t *testing.T) {
	cfg := newSite(t)
	s := New(cfg, build.Options{}, nil, nil)
	require.NoError(t, s.Rebuild(context.Background(), false))

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	writeFile(t, cfg.Path, string(data)+"site_name: Renamed\n")

	require.NoError(t, s.Rebuild(context.Background(), true))
	home, err := os.ReadFile(filepath.Join(cfg.Output, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "<title>Home | Renamed</title>")

	writeFile(t, cfg.Path, "author: [broken\n")
	assert.Error(t, s.Rebuild(context.Background(), true))
	assert.Equal(t, "Renamed", s.config().SiteName, "a bad config keeps the previous one")
}

func TestRebuildNotifiesListeners(t *testing.T) {
	s := New(newSite(t), build.Options{}, nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + eventsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, len("data: hello\n\n"))
	_, err = io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	assert.Equal(t, "data: hello\n\n", string(buf))

	require.NoError(t, s.Rebuild(context.Background(), false))

	got := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, int64(len("data: reload\n\n"))))
		got <- string(data)
	}()
	select {
	case msg := <-got:
		assert.Equal(t, "data: reload\n\n", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event")
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg := newSite(t)
	s := New(cfg, build.Options{}, nil, nil)
	defer s.Close()
	require.NoError(t, s.Rebuild(context.Background(), false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.startWatch(ctx))

	writeFile(t, filepath.Join(cfg.Sources[0], "second.md"), "---\ntitle: Second Sight\n---\n")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Output, "second-sight", "index.html"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIgnored(t *testing.T) {
	cfg := newSite(t)
	s := New(cfg, build.Options{}, nil, nil)

	assert.True(t, s.ignored(filepath.Join(cfg.Output, "index.html")))
	assert.True(t, s.ignored(cfg.IndexPath))
	assert.True(t, s.ignored(filepath.Join(cfg.Sources[0], ".first.md.swp")))
	assert.True(t, s.ignored(filepath.Join(cfg.Sources[0], "first.md~")))
	assert.False(t, s.ignored(filepath.Join(cfg.Sources[0], "first.md")))
	assert.False(t, s.ignored(cfg.Path))
	assert.False(t, s.ignored(cfg.EnvPath()))
	assert.True(t, s.ignored(filepath.Join(cfg.Dir, ".other")))
}

func TestReloadWatchesNewSources(t *testing.T) {
	cfg := newSite(t)
	s := New(cfg, build.Options{}, nil, nil)
	defer s.Close()
	require.NoError(t, s.Rebuild(context.Background(), false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.startWatch(ctx))

	sketches := filepath.Join(cfg.Dir, "sketches")
	writeFile(t, filepath.Join(sketches, "study.md"), "---\ntitle: Hand Study\n---\n")
	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	writeFile(t, cfg.Path, strings.Replace(string(data), "sources: [posts]", "sources: [posts, sketches]", 1))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Output, "hand-study", "index.html"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	writeFile(t, filepath.Join(sketches, "gesture.md"), "---\ntitle: Gesture Drawing\n---\n")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Output, "gesture-drawing", "index.html"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDotEnvEditReloadsConfig(t *testing.T) {
	cfg := newSite(t)
	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	writeFile(t, cfg.Path, string(data)+"site_name: ${ARTBLOG_SERVE_SITE}\n")
	writeFile(t, filepath.Join(cfg.Dir, ".env"), "ARTBLOG_SERVE_SITE=Before\n")
	cfg, err = config.Load(cfg.Path)
	require.NoError(t, err)

	s := New(cfg, build.Options{}, nil, nil)
	defer s.Close()
	require.NoError(t, s.Rebuild(context.Background(), false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.startWatch(ctx))

	writeFile(t, cfg.EnvPath(), "ARTBLOG_SERVE_SITE=After\n")
	assert.Eventually(t, func() bool {
		home, err := os.ReadFile(filepath.Join(cfg.Output, "index.html"))
		return err == nil && strings.Contains(string(home), "<title>Home | After</title>")
	}, 5*time.Second, 50*time.Millisecond)
}
