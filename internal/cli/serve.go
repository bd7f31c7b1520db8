package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/project"
	"github.com/sketchforge/sketchforge/pkg/sketch"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <sketch.ino>",
		Short: "Serve a live preview of a sketch",
		Long: `Serve runs a local HTTP API exposing the sketch source and a change feed.
While a build rewrites the sketch, the preview always shows the latest
accepted fix. Intended for editors and front ends; the API is line-oriented
JSON plus an SSE event stream.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}

			sk, err := sketch.Load(args[0])
			if err != nil {
				return err
			}

			srv, err := newPreviewServer(sk.Path, c)
			if err != nil {
				return err
			}
			defer srv.Close()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				httpSrv.Close()
			}()

			printInfo("Preview at http://%s (Ctrl-C to stop)", addr)
			printDetail("Watching %s", sk.Path)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// previewServer exposes the sketch over HTTP and fans out filesystem change
// notifications to SSE subscribers.
type previewServer struct {
	cli        *CLI
	sketchPath string
	watcher    *fsnotify.Watcher

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newPreviewServer(sketchPath string, c *CLI) (*previewServer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: atomic saves replace the inode, and
	// a file watch would go stale after the first rewrite.
	if err := watcher.Add(filepath.Dir(sketchPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(sketchPath), err)
	}

	s := &previewServer{
		cli:        c,
		sketchPath: sketchPath,
		watcher:    watcher,
		subs:       make(map[chan struct{}]struct{}),
	}
	go s.watch()
	return s, nil
}

func (s *previewServer) Close() error {
	return s.watcher.Close()
}

func (s *previewServer) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.sketchPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.notify()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.cli.Logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *previewServer) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *previewServer) subscribe() (chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *previewServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Get("/api/sketch", s.handleSketch)
	r.Get("/api/runs/latest", s.handleLatestRun)
	r.Get("/api/events", s.handleEvents)
	return r
}

// handleLatestRun reports the newest recorded run for the sketch's project.
// 404 when the sketch is not registered as a project or has no runs yet.
func (s *previewServer) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	store, err := openProjects()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer store.Close()

	p, err := store.FindBySketchPath(r.Context(), s.sketchPath)
	if errors.Is(err, project.ErrNotFound) {
		http.Error(w, "sketch is not a registered project", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	runs, err := store.History(r.Context(), p.Name, 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(runs) == 0 {
		http.Error(w, "no runs recorded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(runs[0])
}

func (s *previewServer) handleSketch(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.sketchPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	info, _ := os.Stat(s.sketchPath)
	resp := struct {
		Path     string    `json:"path"`
		Source   string    `json:"source"`
		Modified time.Time `json:"modified,omitempty"`
	}{Path: s.sketchPath, Source: string(data)}
	if info != nil {
		resp.Modified = info.ModTime()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleEvents streams "change" SSE events until the client disconnects.
func (s *previewServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.subscribe()
	defer unsubscribe()

	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			fmt.Fprint(w, "event: change\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
