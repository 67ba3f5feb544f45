package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"artblog/internal/build"
	"artblog/internal/domain/config"
	"artblog/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceDelay = 200 * time.Millisecond
	rebuildLimit  = time.Minute

	eventsPath = "/_artblog/events"
)

// reloadScript asks the browser to reload after each successful rebuild.
var reloadScript = []byte(`<script>new EventSource("` + eventsPath + `").onmessage=function(e){if(e.data==="reload")location.reload()}</script>`)

type Server struct {
	opts    build.Options
	metrics *metrics.PrometheusRecorder
	log     *slog.Logger

	mu  sync.RWMutex
	cfg config.Config

	buildMu sync.Mutex

	sseMu    sync.Mutex
	sseConns map[chan string]struct{}

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, opts build.Options, rec *metrics.PrometheusRecorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.NewPrometheusRecorder(nil)
	}
	return &Server{
		cfg:      cfg,
		opts:     opts,
		metrics:  rec,
		log:      log,
		sseConns: make(map[chan string]struct{}),
	}
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Rebuild runs one build. When reload is set the config file is read again
// first; a config that fails to load keeps the previous one.
func (s *Server) Rebuild(ctx context.Context, reload bool) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if reload {
		cfg, err := config.Load(s.config().Path)
		if err != nil {
			return fmt.Errorf("reload config: %w", err)
		}
		s.mu.Lock()
		s.cfg = cfg
		s.mu.Unlock()
		// Folders added by the edit need watches of their own.
		if s.watcher != nil {
			if err := s.addWatches(cfg); err != nil {
				s.log.Warn("Cannot watch new inputs", "error", err)
			}
		}
	}

	b := &build.Builder{
		Cfg:      s.config(),
		Opts:     s.opts,
		Recorder: s.metrics,
		Logger:   s.log,
	}
	if _, err := b.Run(ctx); err != nil {
		return err
	}
	s.broadcastSSE("reload")
	return nil
}

// Handler serves the output directory, the live reload stream and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc(eventsPath, s.handleSSE)
	mux.HandleFunc("/", s.handleSite)
	return mux
}

// ListenAndServe serves until ctx is cancelled and rebuilds on change.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.startWatch(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("Serving site", "addr", addr, "output", s.config().Output)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Watch rebuilds on change until ctx is cancelled.
func (s *Server) Watch(ctx context.Context) error {
	if err := s.startWatch(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w
		if err = s.addWatches(s.config()); err != nil {
			return
		}
		go s.watchLoop(ctx)
	})
	return err
}

// addWatches registers every input directory recursively. Single files are
// watched through their parent directory so editors that replace files on
// save are still noticed.
func (s *Server) addWatches(cfg config.Config) error {
	for _, p := range cfg.WatchPaths() {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if err := s.watcher.Add(filepath.Dir(p)); err != nil {
				return err
			}
			continue
		}
		err = filepath.WalkDir(p, func(dir string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if dir != p && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if dir == cfg.Output {
				return filepath.SkipDir
			}
			return s.watcher.Add(dir)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info("Watching for changes")
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	reload := false

	trigger := func() {
		debounce.Stop()
		select {
		case <-debounce.C:
		default:
		}
		debounce.Reset(debounceDelay)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || s.ignored(ev.Name) {
				continue
			}
			s.log.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
			if cfg := s.config(); ev.Name == cfg.Path || ev.Name == cfg.EnvPath() {
				reload = true
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = s.watcher.Add(ev.Name)
				}
			}
			trigger()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("Watcher error", "error", err)
		case <-debounce.C:
			rctx, cancel := context.WithTimeout(ctx, rebuildLimit)
			if err := s.Rebuild(rctx, reload); err != nil {
				s.log.Error("Rebuild failed", "error", err)
			}
			cancel()
			reload = false
		}
	}
}

// ignored reports events for files that never affect the site: the output
// tree, the index database and editor swap files. The dotenv file next to
// the config feeds it and is never ignored.
func (s *Server) ignored(name string) bool {
	cfg := s.config()
	if name == cfg.EnvPath() {
		return false
	}
	for _, p := range []string{cfg.Output, cfg.IndexPath} {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return true
		}
	}
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	root := s.config().Output
	files := http.FileServer(http.Dir(root))

	p := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		p = path.Join(p, "index.html")
	}
	if path.Ext(p) != ".html" {
		files.ServeHTTP(w, r)
		return
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
	if err != nil {
		files.ServeHTTP(w, r)
		return
	}
	if i := bytes.LastIndex(data, []byte("</body>")); i >= 0 {
		data = append(data[:i:i], append(append([]byte{}, reloadScript...), data[i:]...)...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}
