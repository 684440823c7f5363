// Package store persists word graphs.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/japaniel/lexigraph/pkg/wordgraph"
)

// Store loads and saves a word graph. Load on a missing backing store
// returns an empty graph.
type Store interface {
	Load(ctx context.Context) (*wordgraph.Graph, error)
	Save(ctx context.Context, g *wordgraph.Graph) error
}

// JSONFile keeps the graph as a JSON object mapping each word to the sorted
// list of its associated words.
type JSONFile struct {
	Path string
}

// NewJSONFile returns a store backed by the file at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

// Load reads the graph. A missing file yields an empty graph.
func (s *JSONFile) Load(ctx context.Context) (*wordgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return wordgraph.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return wordgraph.New(), nil
	}

	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", s.Path, err)
	}
	return wordgraph.FromMap(m), nil
}

// Save writes the graph atomically: the snapshot goes to a temporary file in
// the same directory which then replaces Path.
func (s *JSONFile) Save(ctx context.Context, g *wordgraph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(g)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace graph file: %w", err)
	}
	return nil
}

// Encode renders the persisted form of g: keys sorted, sets sorted, four
// space indentation, non-ASCII and HTML characters left unescaped.
func Encode(g *wordgraph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	// encoding/json sorts map keys.
	if err := enc.Encode(g.Snapshot()); err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return buf.Bytes(), nil
}
