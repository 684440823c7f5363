// Package lexicon looks words up in an external lexical source and returns
// the raw list of words associated with them.
package lexicon

import (
	"context"
	"errors"
)

// ErrTransport marks failures to reach or understand the source. The
// explorer reports them and moves on without touching the graph.
var ErrTransport = errors.New("lexicon transport fault")

// Result is the outcome of a lookup. Found is false when the source has no
// entry for the word, which is not an error.
type Result struct {
	Found bool
	// Words are the associated words as the source spells them.
	Words []string
	// Title and URL describe the page the words came from, when known.
	Title string
	URL   string
}

// Source looks up a canonical word.
type Source interface {
	Fetch(ctx context.Context, word string) (Result, error)
}

// Static is an in-memory source. A word mapped to nil is reported as found
// with no associations; a missing word is reported as not found.
type Static map[string][]string

// Fetch implements Source.
func (s Static) Fetch(ctx context.Context, word string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	words, ok := s[word]
	if !ok {
		return Result{}, nil
	}
	return Result{Found: true, Words: append([]string(nil), words...)}, nil
}
