// Package codec compresses batch payloads before they enter the page
// index and restores them on the read path. The transform is exact:
// Decompress(Compress(b)) always reproduces b.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Error wraps a failed codec operation. Decompression of corrupt or
// truncated input always surfaces an *Error rather than partial bytes.
type Error struct {
	Op  string // "compress" or "decompress"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compress deflates data. Zero-length input produces a valid (empty)
// stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, &Error{Op: "compress", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Op: "compress", Err: err}
	}
	return buf.Bytes(), nil
}

// Decompress inflates data produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Op: "decompress", Err: err}
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Op: "decompress", Err: err}
	}
	return out, nil
}
