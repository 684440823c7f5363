// Package explore grows a word graph one unexplored word at a time.
package explore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/japaniel/lexigraph/pkg/lexicon"
	"github.com/japaniel/lexigraph/pkg/store"
	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"go.uber.org/zap"
)

// ErrStepPanicked wraps a panic recovered from a step or a prompt.
var ErrStepPanicked = errors.New("exploration step panicked")

// ErrEmptyWord is returned by ExploreOne for a word that canonicalizes to "".
var ErrEmptyWord = errors.New("empty word")

// errInterrupted reports that an interrupt abandoned the running step or prompt.
var errInterrupted = errors.New("interrupted")

// Explorer crawls a lexical source and records what it finds in Graph.
// The graph belongs to the explorer while Run is active.
type Explorer struct {
	Graph  *wordgraph.Graph
	Source lexicon.Source
	Store  store.Store
	// Prompter supplies words when the frontier is exhausted. nil ends the
	// session instead of prompting.
	Prompter Prompter
	// Sink receives one report per step. nil discards reports.
	Sink telemetry.Sink
	// Logger is used for mode changes and failures. nil means no logging.
	Logger *zap.Logger

	// ForcePrompt asks the operator for every word instead of using the frontier.
	ForcePrompt bool
	// EagerExpand explores the new words of a step within the same step.
	EagerExpand bool

	// failed holds frontier words whose lookup failed during this session.
	// Auto mode skips them so a broken page cannot stall the crawl.
	failed map[string]struct{}
}

// New creates an Explorer over g.
func New(g *wordgraph.Graph, src lexicon.Source, st store.Store) *Explorer {
	return &Explorer{
		Graph:  g,
		Source: src,
		Store:  st,
	}
}

func (e *Explorer) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// ExploreOne looks word up unless it is already a key. It returns the
// canonical associations of word and the associations never seen as a value
// of the graph before. Nothing is committed when the lookup fails or ctx is
// done before the result is recorded.
func (e *Explorer) ExploreOne(ctx context.Context, word string) (assocs, fresh []string, err error) {
	word = wordgraph.Canonicalize(word)
	if word == "" {
		return nil, nil, ErrEmptyWord
	}
	if known, ok := e.Graph.Lookup(word); ok {
		return known, nil, nil
	}

	res, err := e.Source.Fetch(ctx, word)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup %q: %w", word, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if !res.Found {
		e.Graph.Insert(word, nil)
		return []string{}, nil, nil
	}
	assocs = wordgraph.CanonicalizeAll(res.Words)
	for _, w := range assocs {
		if !e.Graph.Seen(w) {
			fresh = append(fresh, w)
		}
	}
	e.Graph.Insert(word, assocs)
	if res.Title != "" {
		e.logger().Debug("Explored", zap.String("word", word), zap.String("page", res.Title), zap.Int("associations", len(assocs)))
	}
	return assocs, fresh, nil
}

// step explores word and, with EagerExpand, every new word it uncovered.
func (e *Explorer) step(ctx context.Context, word string) (words []string, newWords int, err error) {
	words = []string{wordgraph.Canonicalize(word)}
	_, fresh, err := e.ExploreOne(ctx, word)
	if err != nil {
		return words, 0, err
	}
	newWords = len(fresh)
	if !e.EagerExpand {
		return words, newWords, nil
	}
	for _, w := range fresh {
		words = append(words, w)
		_, more, err := e.ExploreOne(ctx, w)
		if err != nil {
			return words, newWords, err
		}
		newWords += len(more)
	}
	return words, newWords, nil
}

func (e *Explorer) report(mode telemetry.Mode, words []string, newWords int, err error) {
	telemetry.OrNop(e.Sink).Step(telemetry.StepReport{
		Words:    words,
		NewWords: newWords,
		Frontier: e.Graph.FrontierLen(),
		Keys:     e.Graph.Len(),
		Mode:     mode,
		Err:      err,
	})
}

// nextAuto picks the next frontier word, skipping words that failed earlier.
func (e *Explorer) nextAuto() (string, bool) {
	if len(e.failed) == 0 {
		return e.Graph.NextFrontier()
	}
	for _, w := range e.Graph.Frontier() {
		if _, bad := e.failed[w]; !bad {
			return w, true
		}
	}
	return "", false
}

// Checkpoint saves the graph.
func (e *Explorer) Checkpoint(ctx context.Context) error {
	if e.Store == nil {
		return nil
	}
	if err := e.Store.Save(ctx, e.Graph); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Run explores until the session ends. It starts in auto mode, taking words
// from the frontier, and asks the Prompter for a word when the frontier is
// exhausted. An interrupt in auto mode switches to prompt mode for the rest of
// the session; an interrupt in prompt mode, the end of operator input or the
// cancellation of ctx ends the session. Failed steps are reported and the
// crawl goes on. The graph is saved once more before Run returns, and only
// that final save can make Run fail.
func (e *Explorer) Run(ctx context.Context, interrupts <-chan os.Signal) (err error) {
	log := e.logger()
	e.failed = make(map[string]struct{})
	forced := e.ForcePrompt

	defer func() {
		// The final save must happen even after ctx was cancelled.
		if saveErr := e.Checkpoint(context.WithoutCancel(ctx)); saveErr != nil {
			log.Error("Failed to save graph", zap.Error(saveErr))
			if err == nil {
				err = saveErr
			}
			return
		}
		log.Info("Graph saved", zap.Int("keys", e.Graph.Len()), zap.Int("unexplored", e.Graph.FrontierLen()))
	}()

	for {
		if ctx.Err() != nil {
			log.Info("Exploration cancelled")
			return nil
		}

		mode := telemetry.ModeAuto
		word, ok := "", false
		if !forced {
			word, ok = e.nextAuto()
		}
		if !ok {
			mode = telemetry.ModePrompt
			if e.Prompter == nil {
				log.Info("No word to explore and no operator, stopping")
				return nil
			}
			if err := e.Checkpoint(ctx); err != nil {
				log.Warn("Checkpoint failed", zap.Error(err))
			}
			var input string
			perr := interruptible(ctx, interrupts, func(ctx context.Context) error {
				var err error
				input, err = e.Prompter.RequestWord(ctx)
				return err
			})
			switch {
			case errors.Is(perr, errInterrupted):
				log.Info("Interrupted in prompt mode, stopping")
				return nil
			case errors.Is(perr, io.EOF):
				log.Info("End of operator input, stopping")
				return nil
			case ctx.Err() != nil:
				log.Info("Exploration cancelled")
				return nil
			case perr != nil:
				return fmt.Errorf("request word: %w", perr)
			}
			word = strings.TrimSpace(input)
			if wordgraph.Canonicalize(word) == "" {
				continue
			}
		}

		var words []string
		var newWords int
		serr := interruptible(ctx, interrupts, func(ctx context.Context) error {
			var err error
			words, newWords, err = e.step(ctx, word)
			return err
		})
		switch {
		case errors.Is(serr, errInterrupted):
			if mode == telemetry.ModePrompt {
				log.Info("Interrupted in prompt mode, stopping")
				return nil
			}
			log.Info("Interrupted, switching to prompt mode")
			forced = true
			continue
		case ctx.Err() != nil:
			log.Info("Exploration cancelled")
			return nil
		case serr != nil:
			log.Warn("Exploration step failed", zap.String("word", word), zap.Error(serr))
			if mode == telemetry.ModeAuto {
				e.failed[wordgraph.Canonicalize(word)] = struct{}{}
			}
		}
		e.report(mode, words, newWords, serr)
	}
}

// interruptible runs fn on its own goroutine. An interrupt or the end of ctx
// cancels fn; interruptible always waits for fn to return, so the caller
// never sees the graph while fn may still be writing to it.
func interruptible(ctx context.Context, interrupts <-chan os.Signal, fn func(context.Context) error) error {
	fnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		// A panic in a source or prompter becomes a failed step.
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrStepPanicked, r)
			}
		}()
		done <- fn(fnCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-interrupts:
		cancel()
		<-done
		return errInterrupted
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}
}
