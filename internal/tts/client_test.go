package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesize_ReturnsAudioBytes(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/synthesize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "hello" || req.Voice.Value != "v-1" {
			t.Errorf("unexpected payload: %+v", req)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	got, err := c.Synthesize(context.Background(), "hello", Voice{Name: "Nova", Value: "v-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("expected %q, got %q", audio, got)
	}

	if snap := c.Stats.Snapshot(); snap.Count != 1 {
		t.Errorf("expected 1 latency sample, got %d", snap.Count)
	}
}

func TestSynthesize_ServerErrorIsRetryableSynthesisError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "upstream voice engine down"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Synthesize(context.Background(), "hello", Voice{Value: "v-1"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected *SynthesisError, got %T", err)
	}
	if synthErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", synthErr.StatusCode)
	}
	if synthErr.Message != "upstream voice engine down" {
		t.Errorf("expected parsed error message, got %q", synthErr.Message)
	}
	if !IsRetryable(err) {
		t.Error("500 should be retryable")
	}

	// A failed call must not record a latency sample.
	if snap := c.Stats.Snapshot(); snap.Count != 0 {
		t.Errorf("expected 0 latency samples after failure, got %d", snap.Count)
	}
}

func TestSynthesize_BadRequestIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"text is required"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Synthesize(context.Background(), "", Voice{Value: "v-1"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if IsRetryable(err) {
		t.Error("400 should not be retryable")
	}
}

func TestVoices_ParsesOrderedCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Voice{
			{Name: "Nova", Accent: "american", Value: "v-1"},
			{Name: "Atlas", Accent: "british", Value: "v-2"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	// First entry is the default selection; order must be preserved.
	if voices[0].Value != "v-1" {
		t.Errorf("expected first voice v-1, got %q", voices[0].Value)
	}
}

func TestVoices_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Voices(context.Background())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !IsRetryable(err) {
		t.Error("503 should be retryable")
	}
}
