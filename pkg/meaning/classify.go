// Package meaning splits the synonyms of a word into meanings: groups of
// synonyms that are synonyms of each other.
//
// The graph handed to this package must have been completed with
// wordgraph.Complete and must not change while an analysis runs.
package meaning

import (
	"errors"
	"fmt"
	"sort"

	"github.com/japaniel/lexigraph/pkg/wordgraph"
)

// ErrInvariantViolation reports a graph that breaks an assumption completion
// guarantees, e.g. a trivial synonym that does not point back to the target.
var ErrInvariantViolation = errors.New("graph invariant violated")

// Class tells whether a synonym takes part in the analysis.
type Class int

const (
	// Trivial synonyms only know the target word.
	Trivial Class = iota
	// Useful synonyms have associations of their own.
	Useful
)

func (c Class) String() string {
	switch c {
	case Trivial:
		return "trivial"
	case Useful:
		return "useful"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// ClassOf classifies syn, a synonym of target. A synonym that is not a key,
// or whose only association is target, is trivial.
func ClassOf(g *wordgraph.Graph, target, syn string) (Class, error) {
	assocs, ok := g.Lookup(syn)
	if !ok {
		return Trivial, nil
	}
	switch len(assocs) {
	case 0:
		return Trivial, fmt.Errorf("%w: %q is a synonym of %q but has no associations", ErrInvariantViolation, syn, target)
	case 1:
		if assocs[0] != target {
			return Trivial, fmt.Errorf("%w: %q only lists %q, expected %q", ErrInvariantViolation, syn, assocs[0], target)
		}
		return Trivial, nil
	default:
		return Useful, nil
	}
}

// Classification is the split of the synonyms of Target. Both lists are sorted.
type Classification struct {
	Target  string
	Trivial []string
	Useful  []string
}

// Classify classifies every synonym of target other than target itself.
// It fails with wordgraph.ErrNotFound when target is not a key.
func Classify(g *wordgraph.Graph, target string) (Classification, error) {
	target = wordgraph.Canonicalize(target)
	syns, ok := g.Lookup(target)
	if !ok {
		return Classification{}, fmt.Errorf("%q: %w", target, wordgraph.ErrNotFound)
	}

	c := Classification{Target: target}
	for _, syn := range syns {
		if syn == target {
			continue
		}
		class, err := ClassOf(g, target, syn)
		if err != nil {
			return Classification{}, err
		}
		if class == Useful {
			c.Useful = append(c.Useful, syn)
		} else {
			c.Trivial = append(c.Trivial, syn)
		}
	}
	sort.Strings(c.Trivial)
	sort.Strings(c.Useful)
	return c, nil
}
