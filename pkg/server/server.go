// Package server exposes the synthesis engine and the user dictionary over
// HTTP, using the VOICEVOX engine's route names and parameter conventions.
//
// Query-building routes take text and speaker as URL query parameters and
// return JSON. Routes that consume accent phrases or an audio query read
// them from a JSON body. /synthesis returns audio/wav.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/haivivi/koe/pkg/storage"
	"github.com/haivivi/koe/pkg/synthesis"
	"github.com/haivivi/koe/pkg/userdict"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 8 << 20

// Server serves the HTTP API.
type Server struct {
	engine  *synthesis.Engine
	dict    *userdict.Dict
	store   storage.FileStore
	version string
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithDict enables the user dictionary routes.
func WithDict(d *userdict.Dict) Option {
	return func(s *Server) { s.dict = d }
}

// WithStore lets /synthesis save its output with the save parameter.
func WithStore(fs storage.FileStore) Option {
	return func(s *Server) { s.store = fs }
}

// WithVersion sets the string reported by /version.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server for engine.
func New(engine *synthesis.Engine, opts ...Option) *Server {
	s := &Server{engine: engine, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/version", s.handleVersion)
	r.Get("/speakers", s.handleSpeakers)

	r.Post("/audio_query", s.handleAudioQuery)
	r.Post("/accent_phrases", s.handleAccentPhrases)
	r.Post("/mora_data", s.handleMoraData)
	r.Post("/mora_length", s.handleMoraLength)
	r.Post("/mora_pitch", s.handleMoraPitch)
	r.Post("/synthesis", s.handleSynthesis)

	r.Group(func(r chi.Router) {
		r.Use(s.requireDict)
		r.Get("/user_dict", s.handleUserDict)
		r.Post("/user_dict_word", s.handleAddWord)
		r.Put("/user_dict_word/{word_uuid}", s.handleRewriteWord)
		r.Delete("/user_dict_word/{word_uuid}", s.handleDeleteWord)
		r.Post("/import_user_dict", s.handleImportDict)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server: stopped")
	return nil
}

func (s *Server) requireDict(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.dict == nil {
			writeErrorCode(w, http.StatusNotImplemented, "user dictionary is disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
