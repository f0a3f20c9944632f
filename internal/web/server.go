package web

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"studio-ai/internal/imageinput"
	"studio-ai/internal/studio"
)

//go:embed static/*
var staticFS embed.FS

type Options struct {
	Session        *studio.Session
	Logger         *slog.Logger
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// Location formats result captions; nil means time.Local.
	Location *time.Location
}

type Server struct {
	session        *studio.Session
	logger         *slog.Logger
	requestTimeout time.Duration
	maxUpload      int64
	loc            *time.Location
	hub            *hub
	stopHub        func()
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = imageinput.DefaultMaxBytes
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		session:        opts.Session,
		logger:         logger,
		requestTimeout: timeout,
		maxUpload:      maxUpload,
		loc:            loc,
	}
	s.hub = newHub(opts.Session, logger, loc)
	s.stopHub = s.hub.run()
	return s
}

// Close stops pushing state to websocket clients.
func (s *Server) Close() {
	s.stopHub()
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/nav", s.handleNav).Methods(http.MethodGet)
	api.HandleFunc("/images", s.handleUploadImages).Methods(http.MethodPost)
	api.HandleFunc("/images/{slot}", s.handleImage).Methods(http.MethodGet)
	api.HandleFunc("/images/{slot}", s.handleUploadImage).Methods(http.MethodPut)
	api.HandleFunc("/images/{slot}", s.handleRemoveImage).Methods(http.MethodDelete)
	api.HandleFunc("/settings", s.handleSettings).Methods(http.MethodPut)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/result/image", s.handleResultImage).Methods(http.MethodGet)
	api.HandleFunc("/result/download", s.handleDownload).Methods(http.MethodGet)
	api.HandleFunc("/result", s.handleDismiss).Methods(http.MethodDelete)
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	})

	r.HandleFunc("/ws", s.hub.serveWS)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/").Handler(http.FileServer(http.FS(staticSub))).Methods(http.MethodGet, http.MethodHead)

	return withLogging(r, s.logger)
}

func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func (s *Server) writeState(w http.ResponseWriter, status int) {
	writeJSON(w, status, newStateView(s.session.Snapshot(), s.loc))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
