package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Terminal prints human readable reports. On a terminal, step reports
// overwrite each other on a single line; otherwise each step is one line.
type Terminal struct {
	mu        sync.Mutex
	w         io.Writer
	overwrite bool
	dirty     bool
}

// NewTerminal returns a sink writing to w. Steps overwrite each other when w
// is a terminal.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w, overwrite: IsTerminal(w)}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (t *Terminal) Step(r StepReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("#new words=%3d\t\t#unexplored=%d\t\t#def words=%d  (%s)",
		r.NewWords, r.Frontier, r.Keys, strings.Join(r.Words, ":"))
	if r.Err != nil {
		line += "  ERR " + r.Err.Error()
	}
	if t.overwrite {
		// Trailing blanks wipe what is left of a longer previous line.
		fmt.Fprintf(t.w, "\r%s%s", line, strings.Repeat(" ", 16))
		t.dirty = true
		return
	}
	fmt.Fprintln(t.w, line)
}

// Break ends an overwritten progress line so the next output starts clean.
func (t *Terminal) Break() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty {
		fmt.Fprintln(t.w)
		t.dirty = false
	}
}

func (t *Terminal) Analysis(r AnalysisReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty {
		fmt.Fprintln(t.w)
		t.dirty = false
	}
	WriteAnalysis(t.w, r)
}

// WriteAnalysis renders an analysis report the way the meaning command prints it.
func WriteAnalysis(w io.Writer, r AnalysisReport) {
	fmt.Fprintf(w, "%d synonyms of %s are trivial.\n", r.Trivial, r.Target)
	fmt.Fprintf(w, "%d synonyms of %s will be used.\n", r.Useful, r.Target)
	fmt.Fprintln(w, "Connected components of syngraph:")
	for i, cc := range r.Components {
		fmt.Fprintf(w, "CC %02d: %d elements, including %s\n", i+1, cc.Size, cc.Example)
	}
	fmt.Fprintf(w, "%d merges for a total of %d iterations\n", r.Merges, r.Iterations)
	fmt.Fprintf(w, "Final %d meanings for threshold=%g:\n", len(r.Meanings), r.Threshold)
	for i, m := range r.Meanings {
		others := "no"
		if m.Remaining > 0 {
			others = fmt.Sprint(m.Remaining)
		}
		fmt.Fprintf(w, "%8d %s and %s others\n", i+1, strings.Join(m.Sample, ", "), others)
	}
	fmt.Fprintln(w)
}
