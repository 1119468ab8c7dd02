// Package segment splits page text into bounded word chunks, the unit of
// speech synthesis and playback.
package segment

import "strings"

// DefaultChunkSize is the word count used when callers pass no override.
const DefaultChunkSize = 40

// Split breaks text on whitespace runs and groups the words into chunks
// of at most chunkSize words, rejoined with single spaces. Empty chunks
// are never emitted: all-whitespace input yields nil. A chunkSize below 1
// is clamped to 1. The result is deterministic for a given input pair.
func Split(text string, chunkSize int) []string {
	if chunkSize < 1 {
		chunkSize = 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for i := 0; i < len(words); i += chunkSize {
		end := min(i+chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
