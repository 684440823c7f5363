package explore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/japaniel/lexigraph/pkg/lexicon"
	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingSource struct {
	lexicon.Source
	calls atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context, word string) (lexicon.Result, error) {
	s.calls.Add(1)
	return s.Source.Fetch(ctx, word)
}

// failingSource fails for the words in fail and defers to Static otherwise.
type failingSource struct {
	lexicon.Static
	fail map[string]bool
}

func (s failingSource) Fetch(ctx context.Context, word string) (lexicon.Result, error) {
	if s.fail[word] {
		return lexicon.Result{}, fmt.Errorf("%w: status 502", lexicon.ErrTransport)
	}
	return s.Static.Fetch(ctx, word)
}

// blockingSource blocks on one word until its context ends.
type blockingSource struct {
	lexicon.Static
	block   string
	started chan struct{}
	once    sync.Once
}

func (s *blockingSource) Fetch(ctx context.Context, word string) (lexicon.Result, error) {
	if word == s.block {
		s.once.Do(func() { close(s.started) })
		<-ctx.Done()
		return lexicon.Result{}, ctx.Err()
	}
	return s.Static.Fetch(ctx, word)
}

// panickingSource panics on one word, like a parser choking on a page.
type panickingSource struct {
	lexicon.Static
	word string
}

func (s panickingSource) Fetch(ctx context.Context, word string) (lexicon.Result, error) {
	if word == s.word {
		panic("parser blew up")
	}
	return s.Static.Fetch(ctx, word)
}

type blockingPrompter struct {
	started chan struct{}
}

func (p blockingPrompter) RequestWord(ctx context.Context) (string, error) {
	close(p.started)
	<-ctx.Done()
	return "", ctx.Err()
}

type memStore struct {
	mu    sync.Mutex
	saves int
	last  map[string][]string
}

func (m *memStore) Load(ctx context.Context) (*wordgraph.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return wordgraph.FromMap(m.last), nil
}

func (m *memStore) Save(ctx context.Context, g *wordgraph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.last = g.Snapshot()
	return nil
}

type stepSink struct {
	steps []telemetry.StepReport
}

func (s *stepSink) Step(r telemetry.StepReport)       { s.steps = append(s.steps, r) }
func (s *stepSink) Analysis(telemetry.AnalysisReport) {}

func TestExploreOneDoesNotRefetchKnownWords(t *testing.T) {
	g := wordgraph.New()
	g.Insert("rire", []string{"glousser"})
	src := &countingSource{Source: lexicon.Static{}}
	e := New(g, src, nil)

	assocs, fresh, err := e.ExploreOne(context.Background(), "Rire")
	require.NoError(t, err)
	assert.Equal(t, []string{"glousser"}, assocs)
	assert.Empty(t, fresh)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestExploreOneReportsOnlyUnseenWords(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b", "c"})
	before := map[string]bool{"b": true, "c": true}
	src := lexicon.Static{"b": {"C", "d", "S'amuser", "d"}}
	e := New(g, src, nil)

	assocs, fresh, err := e.ExploreOne(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "amuser"}, assocs)
	assert.Equal(t, []string{"d", "amuser"}, fresh)
	for _, w := range fresh {
		assert.False(t, before[w], "%q was already a value", w)
	}
	got, ok := g.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, assocs, got)
}

func TestExploreOneNotFoundRecordsEmptyKey(t *testing.T) {
	g := wordgraph.New()
	e := New(g, lexicon.Static{}, nil)

	assocs, fresh, err := e.ExploreOne(context.Background(), "introuvable")
	require.NoError(t, err)
	assert.Empty(t, assocs)
	assert.Empty(t, fresh)
	got, ok := g.Lookup("introuvable")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestExploreOneTransportFaultLeavesGraphUnchanged(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b"})
	before := g.Snapshot()
	e := New(g, failingSource{fail: map[string]bool{"b": true}}, nil)

	_, _, err := e.ExploreOne(context.Background(), "b")
	require.ErrorIs(t, err, lexicon.ErrTransport)
	assert.Equal(t, before, g.Snapshot())
}

func TestExploreOneCancelledBeforeCommit(t *testing.T) {
	g := wordgraph.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Static checks the context too; the explorer must not record anything.
	e := New(g, lexicon.Static{"a": {"b"}}, nil)
	_, _, err := e.ExploreOne(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, g.Len())
}

func TestExploreOneEmptyWord(t *testing.T) {
	e := New(wordgraph.New(), lexicon.Static{}, nil)
	_, _, err := e.ExploreOne(context.Background(), "se ")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestRunCrawlsFromOperatorSeed(t *testing.T) {
	g := wordgraph.New()
	st := &memStore{}
	sink := &stepSink{}
	src := lexicon.Static{
		"rire":     {"glousser", "sourire"},
		"glousser": {"rire"},
	}
	e := New(g, src, st)
	e.Prompter = &Words{"rire"}
	e.Sink = sink
	e.Logger = zaptest.NewLogger(t)

	require.NoError(t, e.Run(context.Background(), nil))

	assert.Equal(t, map[string][]string{
		"glousser": {"rire"},
		"rire":     {"glousser", "sourire"},
		"sourire":  {},
	}, st.last)
	// One checkpoint per prompt, plus the final save.
	assert.Equal(t, 3, st.saves)

	require.Len(t, sink.steps, 3)
	assert.Equal(t, telemetry.ModePrompt, sink.steps[0].Mode)
	assert.Equal(t, []string{"rire"}, sink.steps[0].Words)
	assert.Equal(t, 2, sink.steps[0].NewWords)
	assert.Equal(t, telemetry.ModeAuto, sink.steps[1].Mode)
	assert.Equal(t, []string{"glousser"}, sink.steps[1].Words)
	last := sink.steps[2]
	assert.Equal(t, 0, last.Frontier)
	assert.Equal(t, 3, last.Keys)
}

func TestRunTransportFaultContinues(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b", "c"})
	sink := &stepSink{}
	src := failingSource{Static: lexicon.Static{"c": {}}, fail: map[string]bool{"b": true}}
	st := &memStore{}
	e := New(g, src, st)
	e.Sink = sink

	require.NoError(t, e.Run(context.Background(), nil))

	assert.False(t, g.Has("b"))
	assert.True(t, g.Has("c"))
	require.Len(t, sink.steps, 2)
	assert.ErrorIs(t, sink.steps[0].Err, lexicon.ErrTransport)
	assert.NoError(t, sink.steps[1].Err)
	assert.Equal(t, 1, st.saves)
}

func TestRunSurvivesPanickingSource(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b", "c"})
	sink := &stepSink{}
	st := &memStore{}
	e := New(g, panickingSource{Static: lexicon.Static{"c": {"d"}, "d": {}}, word: "b"}, st)
	e.Sink = sink
	e.Logger = zaptest.NewLogger(t)

	require.NoError(t, e.Run(context.Background(), nil))

	require.Len(t, sink.steps, 3)
	assert.ErrorIs(t, sink.steps[0].Err, ErrStepPanicked)
	assert.Contains(t, sink.steps[0].Err.Error(), "parser blew up")
	assert.Equal(t, 1, st.saves, "the final save still runs")
	assert.Equal(t, []string{"a", "c", "d"}, keys(st.last))
	assert.Equal(t, []string{"b"}, g.Frontier(), "the failed word stays on the frontier")
}

func TestRunInterruptInAutoSwitchesToPrompt(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b"})
	src := &blockingSource{block: "b", started: make(chan struct{})}
	sink := &stepSink{}
	st := &memStore{}
	e := New(g, src, st)
	e.Prompter = &Words{"x"}
	e.Sink = sink

	interrupts := make(chan os.Signal, 1)
	go func() {
		<-src.started
		interrupts <- os.Interrupt
	}()

	require.NoError(t, e.Run(context.Background(), interrupts))

	assert.False(t, g.Has("b"), "interrupted step must not be committed")
	assert.True(t, g.Has("x"))
	require.Len(t, sink.steps, 1)
	assert.Equal(t, telemetry.ModePrompt, sink.steps[0].Mode)
	assert.Equal(t, []string{"a", "x"}, keys(st.last))
}

func TestRunInterruptInPromptTerminates(t *testing.T) {
	g := wordgraph.New()
	st := &memStore{}
	p := blockingPrompter{started: make(chan struct{})}
	e := New(g, lexicon.Static{}, st)
	e.Prompter = p

	interrupts := make(chan os.Signal, 1)
	go func() {
		<-p.started
		interrupts <- os.Interrupt
	}()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background(), interrupts) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on the second interrupt")
	}
	// Checkpoint before the prompt, then the final save.
	assert.Equal(t, 2, st.saves)
}

func TestRunForcePromptAsksForEveryWord(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b"})
	src := &countingSource{Source: lexicon.Static{"c": {"d"}}}
	sink := &stepSink{}
	e := New(g, src, &memStore{})
	e.ForcePrompt = true
	e.Prompter = &Words{"c", "  ", "a"}
	e.Sink = sink

	require.NoError(t, e.Run(context.Background(), nil))
	assert.False(t, g.Has("b"), "frontier must not be used when prompting is forced")
	assert.Equal(t, int32(1), src.calls.Load())
	require.Len(t, sink.steps, 2)
	for _, s := range sink.steps {
		assert.Equal(t, telemetry.ModePrompt, s.Mode)
	}
}

func TestRunCancelledContextSaves(t *testing.T) {
	g := wordgraph.New()
	g.Insert("a", []string{"b"})
	st := &memStore{}
	e := New(g, lexicon.Static{}, st)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.Run(ctx, nil))
	assert.Equal(t, 1, st.saves)
	assert.Equal(t, []string{"a"}, keys(st.last))
}

func TestRunEagerExpansion(t *testing.T) {
	g := wordgraph.New()
	sink := &stepSink{}
	src := lexicon.Static{"a": {"b"}, "b": {"c"}, "c": {}}
	e := New(g, src, &memStore{})
	e.EagerExpand = true
	e.Prompter = &Words{"a"}
	e.Sink = sink

	require.NoError(t, e.Run(context.Background(), nil))
	require.NotEmpty(t, sink.steps)
	assert.Equal(t, []string{"a", "b"}, sink.steps[0].Words)
	assert.Equal(t, 2, sink.steps[0].NewWords)
	assert.Equal(t, []string{"a", "b", "c"}, g.Keys())
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("rire\nsourire"), &out)
	prompted := 0
	p.OnPrompt = func() { prompted++ }
	ctx := context.Background()

	w, err := p.RequestWord(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rire\n", w)
	w, err = p.RequestWord(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sourire", w)
	_, err = p.RequestWord(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = p.RequestWord(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, 4, prompted)
	assert.Contains(t, out.String(), "No word to explore. Please provide one.")
	assert.NotContains(t, out.String(), "> ")
}

func TestLinePrompterKeepsInputAcrossCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewLinePrompter(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.RequestWord(ctx)
	require.True(t, errors.Is(err, context.Canceled))

	go fmt.Fprintln(pw, "mot")
	w, err := p.RequestWord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mot\n", w)
}

func TestLinePrompterReadsOnlyOnRequest(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewLinePrompter(pr, io.Discard)

	go fmt.Fprintln(pw, "rire")
	w, err := p.RequestWord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rire\n", w)

	// Nobody asked for a second word, so the pipe write stays blocked.
	written := make(chan struct{})
	go func() {
		fmt.Fprintln(pw, "sourire")
		close(written)
	}()
	select {
	case <-written:
		t.Fatal("input consumed without a pending request")
	case <-time.After(50 * time.Millisecond):
	}

	w, err = p.RequestWord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sourire\n", w)
	<-written

	require.NoError(t, p.Close())
	_, err = p.RequestWord(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func keys(m map[string][]string) []string {
	return wordgraph.FromMap(m).Keys()
}
