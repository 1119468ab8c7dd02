package document

import (
	"sync"
	"time"
)

// Store is a thread-safe in-memory document registry with TTL eviction.
// Documents live for the session they were uploaded in; nothing is
// persisted to disk.
type Store struct {
	mu       sync.Mutex
	docs     map[string]*storedDoc
	ttl      time.Duration
}

type storedDoc struct {
	doc        *Document
	lastAccess time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		docs: make(map[string]*storedDoc),
		ttl:  ttl,
	}
}

// Put registers a document.
func (s *Store) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = &storedDoc{doc: doc, lastAccess: time.Now()}
}

// Get returns a document by ID, refreshing its eviction clock.
func (s *Store) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, ok := s.docs[id]
	if !ok {
		return nil
	}
	sd.lastAccess = time.Now()
	return sd.doc
}

// Delete removes a document.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

// List returns all registered documents.
func (s *Store) List() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Document, 0, len(s.docs))
	for _, sd := range s.docs {
		out = append(out, sd.doc)
	}
	return out
}

// Cleanup removes documents idle past the TTL.
func (s *Store) Cleanup() {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, sd := range s.docs {
		if now.Sub(sd.lastAccess) > s.ttl {
			delete(s.docs, id)
		}
	}
}
