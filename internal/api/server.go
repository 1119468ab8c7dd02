package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pagevoice/pagevoice/internal/audiocache"
	"github.com/pagevoice/pagevoice/internal/config"
	"github.com/pagevoice/pagevoice/internal/document"
	"github.com/pagevoice/pagevoice/internal/playback"
	"github.com/pagevoice/pagevoice/internal/tts"
)

// Server is the HTTP API server for pagevoice.
type Server struct {
	router   chi.Router
	docs     *document.Store
	sessions *playback.Registry
	cache    *audiocache.Cache
	tts      *tts.Client
	voices   []tts.Voice
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. voices is the
// catalog fetched from the speech engine at startup; it seeds new
// sessions' default voice and backs the voice listing when the engine
// is unreachable.
func NewServer(docs *document.Store, sessions *playback.Registry, cache *audiocache.Cache, ttsClient *tts.Client, voices []tts.Voice, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		docs:     docs,
		sessions: sessions,
		cache:    cache,
		tts:      ttsClient,
		voices:   voices,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/documents/{docID}/pages/{page}", s.handleGetPage)

		r.Get("/api/voices", s.handleListVoices)
		r.Get("/api/stats/tts", s.handleTTSStats)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)
		r.Get("/api/sessions/{sessionID}/audio", s.handleSessionAudio)
		r.Post("/api/sessions/{sessionID}/play", s.handleSessionPlay)
		r.Post("/api/sessions/{sessionID}/pause", s.handleSessionPause)
		r.Post("/api/sessions/{sessionID}/resume", s.handleSessionResume)
		r.Post("/api/sessions/{sessionID}/chunk-done", s.handleSessionChunkDone)
		r.Post("/api/sessions/{sessionID}/navigate", s.handleSessionNavigate)
		r.Post("/api/sessions/{sessionID}/voice", s.handleSessionVoice)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
