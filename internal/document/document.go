// Package document holds the processed state of an uploaded document:
// page text compressed in batches and indexed by page range.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pagevoice/pagevoice/internal/codec"
	"github.com/pagevoice/pagevoice/internal/index"
	"github.com/pagevoice/pagevoice/internal/source"
)

// Metadata carries ingest parameters and original file details.
type Metadata struct {
	BatchSize  int       `json:"batch_size"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Document is one uploaded document's processed state. The page index
// tiles [1, PageCount] exactly: every page resolves to one batch, no
// gaps, no overlaps. The index is built once at ingest and read-only
// afterwards.
type Document struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	SizeBytes int64    `json:"size_bytes"`
	PageCnt   int      `json:"page_count"`
	Metadata  Metadata `json:"metadata"`

	idx *index.Tree
}

// batchPayload is the JSON shape compressed into each index node.
type batchPayload struct {
	Pages []source.Page `json:"pages"`
}

// Ingest parses, batches, compresses, and indexes an uploaded file.
// Batch starts are distinct and monotonic by construction, which is what
// the index's silent duplicate-start no-op relies on.
func Ingest(filename string, data []byte, batchSize, wordsPerPage int) (*Document, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	src, err := source.ForFile(filename, wordsPerPage)
	if err != nil {
		return nil, err
	}
	pages, err := src.Pages(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: no extractable content", filename)
	}

	doc := &Document{
		ID:        ContentHashHex(data)[:16],
		Name:      filename,
		SizeBytes: int64(len(data)),
		PageCnt:   len(pages),
		Metadata: Metadata{
			BatchSize:  batchSize,
			Filename:   filename,
			UploadedAt: time.Now(),
		},
		idx: index.New(),
	}

	for i := 0; i < len(pages); i += batchSize {
		end := min(i+batchSize, len(pages))
		batch := batchPayload{Pages: pages[i:end]}

		encoded, err := json.Marshal(batch)
		if err != nil {
			return nil, fmt.Errorf("encode batch: %w", err)
		}
		compressed, err := codec.Compress(encoded)
		if err != nil {
			return nil, fmt.Errorf("compress batch: %w", err)
		}

		if ok := doc.idx.Insert(pages[i].Number, pages[end-1].Number, compressed); !ok {
			return nil, fmt.Errorf("batch start %d collides with an existing range", pages[i].Number)
		}
	}

	return doc, nil
}

// DefaultBatchSize is the page count per compressed batch.
const DefaultBatchSize = 5

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.PageCnt
}

// PageText returns the narratable text of a page. index.ErrNotCovered
// and *codec.Error propagate unchanged so callers can map them to
// page-level failures.
func (d *Document) PageText(page int) (string, error) {
	p, err := d.loadPage(page)
	if err != nil {
		return "", err
	}
	return p.Text, nil
}

// PageBytes returns the decompressed page content as renderable bytes.
func (d *Document) PageBytes(page int) ([]byte, error) {
	p, err := d.loadPage(page)
	if err != nil {
		return nil, err
	}
	return []byte(p.Text), nil
}

func (d *Document) loadPage(page int) (source.Page, error) {
	node, err := d.idx.Search(page)
	if err != nil {
		return source.Page{}, fmt.Errorf("page %d: %w", page, err)
	}

	decoded, err := codec.Decompress(node.Payload)
	if err != nil {
		return source.Page{}, fmt.Errorf("page %d: %w", page, err)
	}

	var batch batchPayload
	if err := json.Unmarshal(decoded, &batch); err != nil {
		return source.Page{}, fmt.Errorf("page %d: decode batch: %w", page, err)
	}

	for _, p := range batch.Pages {
		if p.Number == page {
			return p, nil
		}
	}
	// The covering range exists but the batch lacks the page: the index
	// was corrupted at ingest.
	return source.Page{}, fmt.Errorf("page %d: %w", page, index.ErrNotCovered)
}

// BatchCount returns the number of stored batches.
func (d *Document) BatchCount() int {
	return d.idx.Size()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
