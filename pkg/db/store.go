package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateOrGetWord returns existing word id or inserts a new word and returns its id.
func CreateOrGetWord(db DBExecutor, word string) (int64, error) {
	var id int64
	err := db.QueryRow(`INSERT INTO words (word) VALUES (?)
		ON CONFLICT(word) DO UPDATE SET word = excluded.word
		RETURNING id`, word).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word: %w", err)
	}
	return id, nil
}

// SetAssociations marks wordID as explored and replaces its associations,
// keeping their order.
func SetAssociations(db DBExecutor, wordID int64, assocIDs []int64) error {
	if wordID <= 0 {
		return fmt.Errorf("wordID must be positive")
	}
	if _, err := db.Exec(`UPDATE words SET explored = 1 WHERE id = ?`, wordID); err != nil {
		return fmt.Errorf("mark explored: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM associations WHERE word_id = ?`, wordID); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}
	for pos, aid := range assocIDs {
		if _, err := db.Exec(`INSERT INTO associations (word_id, assoc_id, position) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING`, wordID, aid, pos); err != nil {
			return fmt.Errorf("insert association: %w", err)
		}
	}
	return nil
}

// LoadGraph reads every explored word with its associations. Explored words
// without associations map to an empty slice.
func LoadGraph(db DBExecutor) (map[string][]string, error) {
	graph := make(map[string][]string)

	rows, err := db.Query(`SELECT word FROM words WHERE explored = 1`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			rows.Close()
			return nil, err
		}
		graph[w] = []string{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.Query(`SELECT w.word, a.word FROM associations x
		JOIN words w ON w.id = x.word_id
		JOIN words a ON a.id = x.assoc_id
		WHERE w.explored = 1
		ORDER BY x.word_id, x.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key, assoc string
		if err := rows.Scan(&key, &assoc); err != nil {
			return nil, err
		}
		graph[key] = append(graph[key], assoc)
	}
	return graph, rows.Err()
}

// SaveGraph replaces the stored graph with snapshot inside one transaction.
// Keys and associations are written in sorted order.
func SaveGraph(ctx context.Context, conn *sql.DB, snapshot map[string][]string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if _, err := tx.Exec(`DELETE FROM associations`); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}
	if _, err := tx.Exec(`UPDATE words SET explored = 0`); err != nil {
		return fmt.Errorf("reset explored: %w", err)
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ids := make(map[string]int64, len(keys))
	idOf := func(w string) (int64, error) {
		if id, ok := ids[w]; ok {
			return id, nil
		}
		id, err := CreateOrGetWord(tx, w)
		if err != nil {
			return 0, err
		}
		ids[w] = id
		return id, nil
	}

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		kid, err := idOf(k)
		if err != nil {
			return err
		}
		words := append([]string(nil), snapshot[k]...)
		sort.Strings(words)
		assocIDs := make([]int64, 0, len(words))
		for _, w := range words {
			aid, err := idOf(w)
			if err != nil {
				return err
			}
			assocIDs = append(assocIDs, aid)
		}
		if err := SetAssociations(tx, kid, assocIDs); err != nil {
			return fmt.Errorf("save %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// CreateSession records the start of a collect run.
func CreateSession(db DBExecutor, id, target string) error {
	if id == "" {
		return fmt.Errorf("session id must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO sessions (id, target, started_at) VALUES (?, ?, ?)`, id, target, time.Now())
	return err
}

// InsertStep records one exploration step.
func InsertStep(db DBExecutor, s Step) error {
	if s.SessionID == "" {
		return fmt.Errorf("step needs a session id")
	}
	words, err := json.Marshal(s.Words)
	if err != nil {
		return err
	}
	recorded := s.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err = db.Exec(`INSERT INTO exploration_steps
		(session_id, words, mode, new_words, frontier, key_count, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, string(words), s.Mode, s.NewWords, s.Frontier, s.Keys, nullableString(s.Error), recorded)
	return err
}

// GetSessionSteps returns the steps of a session in recording order.
func GetSessionSteps(db DBExecutor, sessionID string) ([]Step, error) {
	rows, err := db.Query(`SELECT id, session_id, words, mode, new_words, frontier, key_count, error, recorded_at
		FROM exploration_steps WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Step
	for rows.Next() {
		var s Step
		var words string
		var errText sql.NullString
		if err := rows.Scan(&s.ID, &s.SessionID, &words, &s.Mode, &s.NewWords, &s.Frontier, &s.Keys, &errText, &s.RecordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(words), &s.Words); err != nil {
			return nil, fmt.Errorf("decode step words: %w", err)
		}
		if errText.Valid {
			s.Error = errText.String
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullableString returns nil for "" else the value.
func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
