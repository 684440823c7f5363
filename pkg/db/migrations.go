package db

// migrationsSQL is idempotent: every statement can run against an existing database.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS words (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL UNIQUE,
	explored INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS associations (
	word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	assoc_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	PRIMARY KEY (word_id, assoc_id)
);

CREATE INDEX IF NOT EXISTS idx_associations_assoc ON associations(assoc_id);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	target TEXT NOT NULL,
	started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS exploration_steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	words TEXT NOT NULL,
	mode TEXT NOT NULL,
	new_words INTEGER NOT NULL,
	frontier INTEGER NOT NULL,
	key_count INTEGER NOT NULL,
	error TEXT,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_steps_session ON exploration_steps(session_id);
`
