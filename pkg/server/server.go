package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/surface"
	"github.com/raterudder/solarkiosk/web"
)

// Surface is the display hub the server exposes.
type Surface interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	State() surface.State
	WriteChartPNG(w io.Writer) error
}

// Server serves the kiosk page, its WebSocket and a few read-only endpoints.
type Server struct {
	surface Surface
	static  fs.FS

	listenAddr       string
	httpServer       *http.Server
	serverName       string
	webCacheDuration time.Duration
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(sf Surface) *Server {
	srv := New(sf)

	// get the port from PORT when running in a container
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	webCacheDuration := lflag.Duration("web-cache-duration", 0, "Duration to cache web files (e.g. 1h, 5m). 0 means no cache.")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.webCacheDuration = *webCacheDuration
	})

	return srv
}

// New returns a Server serving the embedded page.
func New(sf Surface) *Server {
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(fmt.Errorf("failed to get web static fs: %w", err))
	}
	return &Server{
		surface:    sf,
		static:     static,
		listenAddr: ":8080",
		serverName: "solarkiosk",
	}
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/chart.png", s.handleChartPNG)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// the page is served at / and its assets under /static/
	page := s.webHandler(s.static, http.FileServer(http.FS(s.static)))
	mux.Handle("GET /", page)
	mux.Handle("GET /static/", http.StripPrefix("/static", page))

	// the websocket needs the raw connection so it stays outside of gzip
	root := http.NewServeMux()
	root.HandleFunc("GET /ws", s.surface.ServeWS)
	root.Handle("/", gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
	return s.revisionMiddleware(root)
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.listenAddr,
		Handler:     s.setupHandler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(s.surface.State()); err != nil {
		log.Ctx(r.Context()).WarnContext(r.Context(), "failed to write state response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.surface.WriteChartPNG(&buf); err != nil {
		if errors.Is(err, surface.ErrNoChart) {
			writeJSONError(w, "no chart data yet", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to render chart", slog.Any("error", err))
		writeJSONError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) webHandler(dir fs.FS, h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			// Check if the file exists in the filesystem
			f, err := dir.Open(strings.TrimPrefix(r.URL.Path, "/"))
			if err == nil {
				f.Close()
			} else if errors.Is(err, fs.ErrNotExist) {
				// we don't write JSON here because we don't know what file type is expected
				http.Error(w, "not found", http.StatusNotFound)
				return
			} else {
				log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to open file", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}
		if s.webCacheDuration > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.webCacheDuration.Seconds())))
		}

		h.ServeHTTP(w, r)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
