package telemetry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	steps    []StepReport
	analyses []AnalysisReport
}

func (r *recorder) Step(s StepReport)         { r.steps = append(r.steps, s) }
func (r *recorder) Analysis(a AnalysisReport) { r.analyses = append(r.analyses, a) }

func TestMultiSkipsNilSinks(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}
	m.Step(StepReport{NewWords: 2})
	m.Analysis(AnalysisReport{Target: "rire"})

	assert.Len(t, a.steps, 1)
	assert.Len(t, b.steps, 1)
	assert.Len(t, b.analyses, 1)
	assert.IsType(t, Nop{}, OrNop(nil))
}

func TestTerminalPlainLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	term.Step(StepReport{Words: []string{"rire", "glousser"}, NewWords: 3, Frontier: 10, Keys: 4})
	term.Step(StepReport{Words: []string{"pleurer"}, Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "#new words=  3")
	assert.Contains(t, lines[0], "#unexplored=10")
	assert.Contains(t, lines[0], "(rire:glousser)")
	assert.Contains(t, lines[1], "ERR boom")
	assert.NotContains(t, buf.String(), "\r")
}

func TestWriteAnalysis(t *testing.T) {
	var buf bytes.Buffer
	WriteAnalysis(&buf, AnalysisReport{
		Target:     "rire",
		Trivial:    1,
		Useful:     2,
		Components: []ComponentSummary{{Size: 2, Example: "s1"}},
		Threshold:  0.3,
		Meanings: []MeaningSample{
			{Sample: []string{"s1", "s2"}, Size: 2, Specifics: 2},
			{Sample: []string{"a"}, Remaining: 4, Size: 5},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "1 synonyms of rire are trivial.")
	assert.Contains(t, out, "CC 01: 2 elements, including s1")
	assert.Contains(t, out, "Final 2 meanings for threshold=0.3:")
	assert.Contains(t, out, "s1, s2 and no others")
	assert.Contains(t, out, "a and 4 others")
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLog(zap.New(core))

	sink.Step(StepReport{Words: []string{"rire"}, Mode: ModeAuto})
	sink.Step(StepReport{Words: []string{"rire"}, Mode: ModeAuto, Err: errors.New("unreachable")})
	sink.Analysis(AnalysisReport{Target: "rire", Threshold: 0.5})

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, "Meanings computed", logs.All()[2].Message)
}

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.Step(StepReport{Mode: ModeAuto, NewWords: 3, Frontier: 7, Keys: 2})
	p.Step(StepReport{Mode: ModePrompt, Err: errors.New("x"), Frontier: 7, Keys: 2})
	p.Analysis(AnalysisReport{Target: "rire", Merges: 2, Meanings: make([]MeaningSample, 3)})

	assert.Equal(t, 1.0, testutil.ToFloat64(p.steps.WithLabelValues("auto", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.steps.WithLabelValues("prompt", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.newWords))
	assert.Equal(t, 7.0, testutil.ToFloat64(p.frontier))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.meanings.WithLabelValues("rire")))

	_, err = NewPrometheus(reg)
	assert.Error(t, err, "registering twice on the same registry must fail")
}
