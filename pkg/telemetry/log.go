package telemetry

import "go.uber.org/zap"

// Log writes reports as structured log entries. Steps are logged at debug
// level, failed steps and analyses at info or above.
type Log struct {
	log *zap.Logger
}

// NewLog returns a sink writing to logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{log: logger.Named("telemetry")}
}

func (l *Log) Step(r StepReport) {
	fields := []zap.Field{
		zap.Strings("words", r.Words),
		zap.Int("new_words", r.NewWords),
		zap.Int("frontier", r.Frontier),
		zap.Int("keys", r.Keys),
		zap.String("mode", string(r.Mode)),
	}
	if r.Err != nil {
		l.log.Warn("Exploration step failed", append(fields, zap.Error(r.Err))...)
		return
	}
	l.log.Debug("Exploration step", fields...)
}

func (l *Log) Analysis(r AnalysisReport) {
	l.log.Info("Meanings computed",
		zap.String("target", r.Target),
		zap.Float64("threshold", r.Threshold),
		zap.Int("trivial", r.Trivial),
		zap.Int("useful", r.Useful),
		zap.Int("edges", r.Edges),
		zap.Int("components", len(r.Components)),
		zap.Int("meanings", len(r.Meanings)),
		zap.Int("merges", r.Merges),
		zap.Int("iterations", r.Iterations),
	)
}
