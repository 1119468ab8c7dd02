// Package playback drives chunk-by-chunk narration of a document. A
// Session is a state machine: while one chunk plays, the next chunk's
// audio is speculatively fetched so playback stays gapless across chunk
// and page boundaries.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagevoice/pagevoice/internal/audiocache"
	"github.com/pagevoice/pagevoice/internal/segment"
	"github.com/pagevoice/pagevoice/internal/tts"
)

// State is the playback phase of a session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// PageSource is the document renderer collaborator: it resolves page
// numbers to narratable text. *document.Document satisfies it.
type PageSource interface {
	PageText(page int) (string, error)
	PageCount() int
}

// Synthesizer converts chunk text to audio bytes. *tts.Client satisfies
// it; tests substitute fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice tts.Voice) ([]byte, error)
}

// Options configures a session.
type Options struct {
	ChunkSize       int           // words per chunk
	AutoAdvance     bool          // continue to the next page after the last chunk
	SettleDelay     time.Duration // pause before auto-advancing pages
	PrefetchTimeout time.Duration // deadline for speculative synthesis calls
}

// PlaybackState is a read-only snapshot of a session, safe to serialize.
type PlaybackState struct {
	SessionID   string    `json:"session_id"`
	State       State     `json:"state"`
	Page        int       `json:"page"`
	PageCount   int       `json:"page_count"`
	ChunkIndex  int       `json:"chunk_index"`
	ChunkCount  int       `json:"chunk_count"`
	Voice       tts.Voice `json:"voice"`
	AutoAdvance bool      `json:"auto_advance"`
	LastError   string    `json:"last_error,omitempty"`
}

// Session narrates one document for one listener. All state transitions
// happen under a single mutex; network synthesis is the only operation
// performed unlocked, and its result is discarded if a navigation or
// voice change superseded it in the meantime (the generation check).
type Session struct {
	ID string

	mu    sync.Mutex
	doc   PageSource
	synth Synthesizer
	cache *audiocache.Cache
	log   *slog.Logger
	opts  Options

	state    State
	voice    tts.Voice
	page     int
	chunks   []string
	chunkIdx int
	current  []byte // live audio handle for the current chunk
	lastErr  string

	// generation counts navigations and voice changes. Any unlocked
	// synthesis captures it first and discards its result on mismatch.
	generation uint64
	// inflight coalesces fetches: one outbound synthesis request per
	// cache key. The channel closes when the request settles.
	inflight     map[string]chan struct{}
	advanceTimer *time.Timer
	closed       bool
}

// NewSession builds a session positioned at page 1. Page 1's text is
// loaded and segmented immediately so the first Play has chunks.
func NewSession(id string, doc PageSource, synth Synthesizer, cache *audiocache.Cache, voice tts.Voice, opts Options, log *slog.Logger) (*Session, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = segment.DefaultChunkSize
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if opts.PrefetchTimeout <= 0 {
		opts.PrefetchTimeout = 90 * time.Second
	}

	text, err := doc.PageText(1)
	if err != nil {
		return nil, fmt.Errorf("load page 1: %w", err)
	}

	return &Session{
		ID:       id,
		doc:      doc,
		synth:    synth,
		cache:    cache,
		log:      log.With("session_id", id),
		opts:     opts,
		state:    StateIdle,
		voice:    voice,
		page:     1,
		chunks:   segment.Split(text, opts.ChunkSize),
		inflight: make(map[string]chan struct{}),
	}, nil
}

// Play starts (or resumes) narration of the current chunk. It requires
// chunks for the current page and a selected voice. On a cache hit the
// session goes straight to playing and the next chunk is prefetched; on
// a miss it synthesizes first. An active-chunk synthesis failure is
// surfaced and the session returns to idle with the error recorded.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	switch s.state {
	case StatePlaying:
		return nil
	case StateLoading:
		return &PreconditionError{Reason: "synthesis already in progress"}
	case StatePaused:
		// Play from paused resumes without resetting position.
		s.state = StatePlaying
		return nil
	case StateError:
		return &PreconditionError{Reason: "page load failed; navigate to a readable page"}
	}
	if len(s.chunks) == 0 {
		return &PreconditionError{Reason: "current page has no narratable text"}
	}
	if s.voice.Value == "" {
		return &PreconditionError{Reason: "no voice selected"}
	}

	audio, superseded, err := s.fetchChunkLocked(ctx, s.chunkIdx)
	if superseded {
		return nil
	}
	if err != nil {
		s.state = StateIdle
		s.lastErr = err.Error()
		return err
	}
	s.current = audio
	s.state = StatePlaying
	s.lastErr = ""
	s.prefetchLocked(s.chunkIdx + 1)
	return nil
}

// ChunkDone is the chunk-audio-finished event. With a next chunk it
// advances playback (instant on prefetch hit, blocking synthesis on a
// miss) and speculatively fetches the chunk after that. After the last
// chunk the session resets to chunk 0 and goes idle; with auto-advance
// enabled and a next page available, the next page starts playing after
// the settle delay.
func (s *Session) ChunkDone(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePlaying {
		return &PreconditionError{Reason: fmt.Sprintf("chunk-done event while %s", s.state)}
	}

	next := s.chunkIdx + 1
	if next >= len(s.chunks) {
		// Page exhausted.
		s.chunkIdx = 0
		s.current = nil
		s.state = StateIdle
		if s.opts.AutoAdvance && s.page < s.doc.PageCount() {
			gen := s.generation
			target := s.page + 1
			s.advanceTimer = time.AfterFunc(s.opts.SettleDelay, func() {
				s.advancePage(gen, target)
			})
		}
		return nil
	}

	audio, superseded, err := s.fetchChunkLocked(ctx, next)
	if superseded {
		return nil
	}
	if err != nil {
		s.state = StateIdle
		s.lastErr = err.Error()
		return err
	}
	s.chunkIdx = next
	s.current = audio
	s.state = StatePlaying
	s.prefetchLocked(next + 1)
	return nil
}

// fetchChunkLocked acquires audio for chunk idx: cache hit, coalescing
// with an in-flight speculative fetch, or blocking synthesis, in that
// order. Enters and returns with the lock held. superseded reports that
// a navigation or voice change invalidated the fetch while the lock was
// released; the caller must then leave all state untouched.
func (s *Session) fetchChunkLocked(ctx context.Context, idx int) (audio []byte, superseded bool, err error) {
	text := s.chunks[idx]
	key := audiocache.Key(text, s.voice.Value)
	if audio, ok := s.cache.Get(key); ok {
		return audio, false, nil
	}

	gen := s.generation
	voice := s.voice
	s.state = StateLoading

	if ch, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		<-ch
		s.mu.Lock()
		if s.closed || gen != s.generation {
			return nil, true, nil
		}
		if audio, ok := s.cache.Get(key); ok {
			return audio, false, nil
		}
		// The speculative fetch failed; synthesize here instead.
	}

	s.mu.Unlock()
	audio, err = s.synth.Synthesize(ctx, text, voice)
	if err == nil {
		// Cache even a superseded result: entries are content-addressed,
		// so it can still serve a later request for the same chunk.
		s.cache.Put(key, audio)
	}
	s.mu.Lock()

	if s.closed || gen != s.generation {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return audio, false, nil
}

// prefetchLocked speculatively fetches the audio for chunk idx. Exactly
// one chunk ahead is ever requested, and the in-flight map guarantees a
// single outbound request per cache key. Failures are logged and
// swallowed: the chunk is synthesized on demand when it becomes current.
// Results always land in the cache even if a navigation happened
// meanwhile — entries are content-addressed, so a stale write is
// harmless and never touches session state.
func (s *Session) prefetchLocked(idx int) {
	if idx < 0 || idx >= len(s.chunks) {
		return
	}
	text := s.chunks[idx]
	key := audiocache.Key(text, s.voice.Value)
	if _, ok := s.cache.Get(key); ok {
		return
	}
	if _, ok := s.inflight[key]; ok {
		return
	}
	done := make(chan struct{})
	s.inflight[key] = done
	voice := s.voice

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PrefetchTimeout)
		defer cancel()
		audio, err := s.synth.Synthesize(ctx, text, voice)
		if err == nil {
			s.cache.Put(key, audio)
		}

		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		close(done)

		if err != nil {
			s.log.Warn("speculative prefetch failed", "chunk", idx, "error", err)
		}
	}()
}

// advancePage runs after the settle delay. The generation check makes a
// manual navigation or voice change in the window cancel the advance.
func (s *Session) advancePage(gen uint64, target int) {
	s.mu.Lock()
	if s.closed || gen != s.generation || s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.Navigate(target); err != nil {
		s.log.Warn("auto-advance navigation failed", "page", target, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PrefetchTimeout)
	defer cancel()
	if err := s.Play(ctx); err != nil {
		s.log.Warn("auto-advance play failed", "page", target, "error", err)
	}
}

// Pause halts output and retains the chunk position. Valid only while
// playing.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePlaying {
		return &PreconditionError{Reason: fmt.Sprintf("pause while %s", s.state)}
	}
	s.state = StatePaused
	return nil
}

// Resume continues from where Pause left off.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePaused {
		return &PreconditionError{Reason: fmt.Sprintf("resume while %s", s.state)}
	}
	s.state = StatePlaying
	return nil
}

// Navigate moves the session to a page, reloading and re-segmenting its
// text. Any in-flight synthesis result for the old page is discarded
// when it arrives. A page-load failure (index gap, corrupt payload)
// puts the session in the error state; navigating elsewhere recovers.
func (s *Session) Navigate(page int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if page < 1 || page > s.doc.PageCount() {
		s.mu.Unlock()
		return &PreconditionError{Reason: fmt.Sprintf("page %d out of range [1,%d]", page, s.doc.PageCount())}
	}
	s.generation++
	gen := s.generation
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	text, err := s.doc.PageText(page)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return nil
	}
	if err != nil {
		s.state = StateError
		s.lastErr = err.Error()
		return err
	}
	s.page = page
	s.chunks = segment.Split(text, s.opts.ChunkSize)
	s.chunkIdx = 0
	s.current = nil
	s.lastErr = ""
	s.state = StateIdle
	return nil
}

// ChangeVoice selects a new voice. The live audio handle is cleared and
// the next Play synthesizes fresh; cache entries for the old voice stay
// valid for later reuse.
func (s *Session) ChangeVoice(voice tts.Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if voice.Value == "" {
		return &PreconditionError{Reason: "voice has no identifier"}
	}
	s.generation++
	s.voice = voice
	s.current = nil
	if s.state == StatePlaying || s.state == StateLoading || s.state == StatePaused {
		s.state = StateIdle
	}
	return nil
}

// CurrentAudio returns the audio bytes of the chunk being played.
func (s *Session) CurrentAudio() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.current == nil {
		return nil, &PreconditionError{Reason: "no chunk audio loaded"}
	}
	return s.current, nil
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PlaybackState{
		SessionID:   s.ID,
		State:       s.state,
		Page:        s.page,
		PageCount:   s.doc.PageCount(),
		ChunkIndex:  s.chunkIdx,
		ChunkCount:  len(s.chunks),
		Voice:       s.voice,
		AutoAdvance: s.opts.AutoAdvance,
		LastError:   s.lastErr,
	}
}

// Close tears the session down, releasing the live audio handle and any
// pending auto-advance. In-flight prefetches drain into the shared
// cache and are otherwise ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	s.current = nil
	s.chunks = nil
	s.state = StateIdle
}
