package db

import "time"

// Word is a row of the words table. Explored words are graph keys; the others
// only appear as associations.
type Word struct {
	ID       int64
	Word     string
	Explored bool
}

// Session groups the steps of one collect run.
type Session struct {
	ID        string
	Target    string
	StartedAt time.Time
}

// Step is one recorded exploration step.
type Step struct {
	ID         int64
	SessionID  string
	Words      []string
	Mode       string
	NewWords   int
	Frontier   int
	Keys       int
	Error      string
	RecordedAt time.Time
}
