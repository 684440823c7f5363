package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/japaniel/lexigraph/pkg/telemetry"
	"go.uber.org/zap"
)

// StepRecorder is a telemetry sink that appends every exploration step to the
// exploration_steps table of one session. Writes go through a BatchWriter, so
// recording never blocks the crawl on disk I/O.
type StepRecorder struct {
	SessionID string
	bw        *BatchWriter
	log       *zap.Logger
}

// NewStepRecorder opens a new session for target and returns a recorder bound to it.
func NewStepRecorder(conn *sql.DB, target string, logger *zap.Logger) (*StepRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	if err := CreateSession(conn, id, target); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	r := &StepRecorder{
		SessionID: id,
		bw:        NewBatchWriter(conn, 50, time.Second),
		log:       logger.Named("recorder").With(zap.String("session", id)),
	}
	r.bw.OnError = func(err error) {
		r.log.Warn("Failed to record exploration steps", zap.Error(err))
	}
	return r, nil
}

// Step implements telemetry.Sink.
func (r *StepRecorder) Step(rep telemetry.StepReport) {
	s := Step{
		SessionID:  r.SessionID,
		Words:      rep.Words,
		Mode:       string(rep.Mode),
		NewWords:   rep.NewWords,
		Frontier:   rep.Frontier,
		Keys:       rep.Keys,
		RecordedAt: time.Now(),
	}
	if rep.Err != nil {
		s.Error = rep.Err.Error()
	}
	if err := r.bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return InsertStep(tx, s)
	}); err != nil {
		r.log.Debug("Step dropped", zap.Error(err))
	}
}

// Analysis implements telemetry.Sink. Analyses are not recorded.
func (r *StepRecorder) Analysis(telemetry.AnalysisReport) {}

// Close commits the pending steps.
func (r *StepRecorder) Close() error {
	return r.bw.Close()
}
