package document

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pagevoice/pagevoice/internal/index"
)

// twelvePageText builds a text document that paginates into exactly
// twelve pages of ten words each.
func twelvePageText() []byte {
	var sb strings.Builder
	for p := 1; p <= 12; p++ {
		for w := 1; w <= 10; w++ {
			sb.WriteString("word ")
		}
		sb.WriteString("\n\n")
	}
	return []byte(sb.String())
}

func TestIngest_TilesAllPages(t *testing.T) {
	doc, err := Ingest("book.txt", twelvePageText(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.PageCount() != 12 {
		t.Fatalf("expected 12 pages, got %d", doc.PageCount())
	}
	// 12 pages in batches of 5 -> [1,5] [6,10] [11,12].
	if doc.BatchCount() != 3 {
		t.Errorf("expected 3 batches, got %d", doc.BatchCount())
	}

	for p := 1; p <= 12; p++ {
		text, err := doc.PageText(p)
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", p, err)
		}
		if len(strings.Fields(text)) != 10 {
			t.Errorf("page %d: expected 10 words, got %d", p, len(strings.Fields(text)))
		}
	}
}

func TestPageText_OutOfRange(t *testing.T) {
	doc, err := Ingest("book.txt", twelvePageText(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := doc.PageText(13); !errors.Is(err, index.ErrNotCovered) {
		t.Errorf("expected ErrNotCovered for page 13, got %v", err)
	}
	if _, err := doc.PageText(0); !errors.Is(err, index.ErrNotCovered) {
		t.Errorf("expected ErrNotCovered for page 0, got %v", err)
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	if _, err := Ingest("empty.txt", []byte("   \n\n  "), 5, 10); err == nil {
		t.Fatal("expected error for document with no extractable content")
	}
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	if _, err := Ingest("slides.pptx", []byte("data"), 5, 10); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIngest_IDIsContentAddressed(t *testing.T) {
	data := twelvePageText()
	d1, err := Ingest("a.txt", data, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := Ingest("b.txt", data, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1.ID != d2.ID {
		t.Errorf("identical content should produce identical IDs: %q vs %q", d1.ID, d2.ID)
	}
}

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	s := NewStore(time.Hour)
	doc, err := Ingest("book.txt", twelvePageText(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Put(doc)
	if got := s.Get(doc.ID); got != doc {
		t.Fatal("expected stored document back")
	}
	if len(s.List()) != 1 {
		t.Errorf("expected 1 document listed, got %d", len(s.List()))
	}

	if !s.Delete(doc.ID) {
		t.Fatal("expected delete to report true")
	}
	if s.Get(doc.ID) != nil {
		t.Fatal("expected nil after delete")
	}
	if s.Delete(doc.ID) {
		t.Error("expected second delete to report false")
	}
}

func TestStore_CleanupEvictsIdleDocuments(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	doc, err := Ingest("book.txt", twelvePageText(), 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Put(doc)

	time.Sleep(25 * time.Millisecond)
	s.Cleanup()

	if s.Get(doc.ID) != nil {
		t.Fatal("expected idle document evicted")
	}
}
