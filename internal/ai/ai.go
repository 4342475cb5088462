// Package ai generates the summary and markdown artifacts for a document.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Enricher produces the two enrichment artifacts from extracted text.
// Both calls are independent and may run concurrently.
type Enricher interface {
	Summarize(ctx context.Context, text string) (string, error)
	Markdown(ctx context.Context, text string) (string, error)
}

// Truncate cuts text to at most max characters (runes). max <= 0 disables the limit.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
