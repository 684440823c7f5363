package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, db *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragma %s: %v", table, err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies a fresh database gets every table the
// graph store and step recorder rely on.
func TestInitDBCreatesSchema(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"words", "associations", "sessions", "exploration_steps"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
	if cols := tableColumns(t, db, "associations"); !cols["position"] || !cols["assoc_id"] {
		t.Fatalf("associations columns: %v", cols)
	}
	if cols := tableColumns(t, db, "exploration_steps"); !cols["key_count"] || !cols["session_id"] {
		t.Fatalf("exploration_steps columns: %v", cols)
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestOpenMemory(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if _, err := CreateOrGetWord(conn, "rire"); err != nil {
		t.Fatalf("write after open: %v", err)
	}
}
