package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pagevoice/pagevoice/internal/playback"
	"github.com/pagevoice/pagevoice/internal/tts"
)

type createSessionRequest struct {
	DocumentID  string `json:"doc_id"`
	Voice       string `json:"voice"`
	ChunkSize   int    `json:"chunk_size"`
	AutoAdvance bool   `json:"auto_advance"`
}

// handleCreateSession opens a playback session on an ingested document,
// positioned at page 1. The voice defaults to the first catalog entry.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		jsonError(w, "doc_id is required", http.StatusBadRequest)
		return
	}

	doc := s.docs.Get(req.DocumentID)
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	voice, ok := s.resolveVoice(req.Voice)
	if !ok {
		jsonError(w, "unknown voice: "+req.Voice, http.StatusBadRequest)
		return
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.cfg.ChunkSize
	}

	session, err := playback.NewSession(uuid.NewString(), doc, s.tts, s.cache, voice, playback.Options{
		ChunkSize:   chunkSize,
		AutoAdvance: req.AutoAdvance,
		SettleDelay: s.cfg.AdvanceSettleDelay,
	}, s.log)
	if err != nil {
		jsonError(w, "failed to open session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.sessions.Put(session)

	s.log.Info("session opened", "session_id", session.ID, "doc_id", doc.ID, "voice", voice.Value)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session.Snapshot())
}

// resolveVoice maps a voice identifier to a catalog entry. An empty
// identifier selects the catalog's first voice.
func (s *Server) resolveVoice(value string) (tts.Voice, bool) {
	if value == "" {
		if len(s.voices) == 0 {
			return tts.Voice{}, false
		}
		return s.voices[0], true
	}
	for _, v := range s.voices {
		if v.Value == value {
			return v, true
		}
	}
	return tts.Voice{}, false
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *playback.Session {
	session := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return session
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": id})
}

// handleSessionAudio serves the audio bytes of the session's current
// chunk.
func (s *Server) handleSessionAudio(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	audio, err := session.CurrentAudio()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

func (s *Server) handleSessionPlay(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	if err := session.Play(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

func (s *Server) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	if err := session.Pause(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	if err := session.Resume(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

// handleSessionChunkDone is the client's chunk-audio-finished signal.
func (s *Server) handleSessionChunkDone(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	if err := session.ChunkDone(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

func (s *Server) handleSessionNavigate(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := session.Navigate(req.Page); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

func (s *Server) handleSessionVoice(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	if session == nil {
		return
	}
	var req struct {
		Voice string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	voice, ok := s.resolveVoice(req.Voice)
	if !ok {
		jsonError(w, "unknown voice: "+req.Voice, http.StatusBadRequest)
		return
	}
	if err := session.ChangeVoice(voice); err != nil {
		writeSessionError(w, err)
		return
	}
	writeSnapshot(w, session)
}

func writeSnapshot(w http.ResponseWriter, session *playback.Session) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

// writeSessionError maps playback errors to HTTP statuses: rejected
// transitions are conflicts, closed sessions are gone, speech engine
// failures are bad gateways.
func writeSessionError(w http.ResponseWriter, err error) {
	var precond *playback.PreconditionError
	var synthErr *tts.SynthesisError
	switch {
	case errors.As(err, &precond):
		jsonError(w, precond.Reason, http.StatusConflict)
	case errors.Is(err, playback.ErrSessionClosed):
		jsonError(w, "session closed", http.StatusGone)
	case errors.As(err, &synthErr):
		jsonError(w, "speech engine error: "+synthErr.Message, http.StatusBadGateway)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
