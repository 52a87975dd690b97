// Package server serves the monitor page: input selection, the MIDI message
// log, the four envelope sliders and the envelope sketch.
package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chase3718/adsr-monitor/internal/envelope"
	"github.com/chase3718/adsr-monitor/internal/logsink"
	"github.com/chase3718/adsr-monitor/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server is the HTTP front end of one session.
type Server struct {
	sess      *session.Session
	log       *logsink.Buffer
	renderer  *envelope.Renderer
	router    *chi.Mux
	templates *template.Template
	logger    *slog.Logger

	mu  sync.RWMutex
	png []byte
	svg []byte
}

// New creates a server for sess. The sketch is redrawn on every parameter
// change of the session.
func New(sess *session.Session, log *logsink.Buffer, renderer *envelope.Renderer, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		sess:      sess,
		log:       log,
		renderer:  renderer,
		router:    chi.NewRouter(),
		templates: tmpl,
		logger:    logger,
	}
	s.setupRoutes()
	sess.OnChange(s.redraw)
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/envelope.png", s.handleEnvelopePNG)
	r.Get("/envelope.svg", s.handleEnvelopeSVG)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/devices", s.handleDevices)
		r.Post("/devices/select", s.handleSelect)
		r.Put("/params/{name}", s.handleSetParam)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/log", s.handleLog)
	})
}

// redraw renders v into the cached PNG and SVG. A degenerate layout keeps
// the previous sketch.
func (s *Server) redraw(v envelope.Values) {
	l := s.renderer.Layout
	raster := envelope.NewRaster(int(l.Width), int(l.Height))
	if err := s.renderer.Draw(v, raster); err != nil {
		s.logger.Error("server: redraw failed", "err", err)
		return
	}
	var pngBuf bytes.Buffer
	if err := raster.EncodePNG(&pngBuf); err != nil {
		s.logger.Error("server: png encode failed", "err", err)
		return
	}
	svg := envelope.NewSVG(l.Width, l.Height)
	if err := s.renderer.Draw(v, svg); err != nil {
		s.logger.Error("server: svg redraw failed", "err", err)
		return
	}
	var svgBuf bytes.Buffer
	if _, err := svg.WriteTo(&svgBuf); err != nil {
		s.logger.Error("server: svg encode failed", "err", err)
		return
	}

	s.mu.Lock()
	s.png, s.svg = pngBuf.Bytes(), svgBuf.Bytes()
	s.mu.Unlock()
	s.logger.Debug("server: envelope redrawn", "attack", v.Attack, "decay", v.Decay, "sustain", v.Sustain, "release", v.Release)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http: request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"dur", time.Since(start),
				"req_id", middleware.GetReqID(r.Context()))
		})
	}
}
