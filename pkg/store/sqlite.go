package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/japaniel/lexigraph/pkg/db"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
)

// SQLite keeps the graph in the words/associations tables of a sqlite
// database.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens and migrates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph database: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// NewSQLite wraps an already migrated connection.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{conn: conn}
}

// DB exposes the connection, e.g. for the step recorder.
func (s *SQLite) DB() *sql.DB { return s.conn }

func (s *SQLite) Load(ctx context.Context) (*wordgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := db.LoadGraph(s.conn)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return wordgraph.FromMap(m), nil
}

func (s *SQLite) Save(ctx context.Context, g *wordgraph.Graph) error {
	return db.SaveGraph(ctx, s.conn, g.Snapshot())
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
