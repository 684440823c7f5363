// Package telemetry carries advisory progress reports out of the explorer and
// the meaning engine. Sinks never influence the computation they observe.
package telemetry

// Mode names the explorer state a step ran in.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModePrompt Mode = "prompt"
)

// StepReport describes one exploration step.
type StepReport struct {
	// Words lists the words looked up in this step, the seed first.
	Words    []string
	NewWords int
	Frontier int
	Keys     int
	Mode     Mode
	// Err is set when the step failed; the graph was left unchanged.
	Err error
}

// ComponentSummary describes one connected component of a similarity graph.
type ComponentSummary struct {
	Size    int
	Example string
}

// MeaningSample is the printable digest of one meaning.
type MeaningSample struct {
	Sample    []string
	Remaining int
	Specifics int
	Size      int
}

// AnalysisReport is emitted once per evaluated threshold.
type AnalysisReport struct {
	Target     string
	Trivial    int
	Useful     int
	Edges      int
	Components []ComponentSummary
	Threshold  float64
	Merges     int
	Iterations int
	Meanings   []MeaningSample
}

// Sink receives reports.
type Sink interface {
	Step(StepReport)
	Analysis(AnalysisReport)
}

// Nop discards every report.
type Nop struct{}

func (Nop) Step(StepReport)         {}
func (Nop) Analysis(AnalysisReport) {}

// Multi fans reports out to several sinks. Nil entries are skipped.
type Multi []Sink

func (m Multi) Step(r StepReport) {
	for _, s := range m {
		if s != nil {
			s.Step(r)
		}
	}
}

func (m Multi) Analysis(r AnalysisReport) {
	for _, s := range m {
		if s != nil {
			s.Analysis(r)
		}
	}
}

// OrNop returns s, or a Nop sink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}
