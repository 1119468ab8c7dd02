package api

import (
	"encoding/json"
	"net/http"
)

// handleListVoices proxies the speech engine's voice catalog, falling
// back to the catalog fetched at startup when the engine is down.
func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.tts.Voices(r.Context())
	if err != nil {
		s.log.Warn("live voice listing failed, serving startup catalog", "error", err)
		voices = s.voices
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"voices": voices})
}

func (s *Server) handleTTSStats(w http.ResponseWriter, r *http.Request) {
	if s.tts == nil || s.tts.Stats == nil {
		jsonError(w, "tts stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats": s.tts.Stats.Snapshot(),
	})
}
