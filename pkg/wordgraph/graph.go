// Package wordgraph holds the word association graph: a mapping from a
// canonical word to the ordered set of words associated with it.
//
// A Graph is owned by a single goroutine while it is being built. Once
// completed it may be read concurrently as long as nobody mutates it.
package wordgraph

import (
	"errors"
	"slices"
	"sort"
)

// ErrNotFound is returned when a word is not a key of the graph.
var ErrNotFound = errors.New("word not found in graph")

// Graph maps canonical words to their associated words.
// A key mapped to an empty set was explored and nothing was found;
// a word that is not a key has not been explored yet.
type Graph struct {
	assoc map[string][]string
	// refs counts, for every word, how many keys list it as an association.
	refs map[string]int
	// frontier holds words with refs > 0 that are not keys.
	frontier map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		assoc:    make(map[string][]string),
		refs:     make(map[string]int),
		frontier: make(map[string]struct{}),
	}
}

// FromMap builds a graph from a word -> associations mapping, canonicalizing
// every word. Keys that collapse to the same canonical form are merged.
func FromMap(m map[string][]string) *Graph {
	g := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		word := Canonicalize(k)
		words := CanonicalizeAll(m[k])
		if prev, ok := g.assoc[word]; ok {
			words = CanonicalizeAll(append(slices.Clone(prev), words...))
		}
		g.Insert(word, words)
	}
	return g
}

// Lookup returns the associations of word and whether word is a key.
// The returned slice is a copy.
func (g *Graph) Lookup(word string) ([]string, bool) {
	words, ok := g.assoc[Canonicalize(word)]
	if !ok {
		return nil, false
	}
	return slices.Clone(words), true
}

// Has reports whether word has been explored.
func (g *Graph) Has(word string) bool {
	_, ok := g.assoc[Canonicalize(word)]
	return ok
}

// Associated reports whether other is in the association set of word.
func (g *Graph) Associated(word, other string) bool {
	return slices.Contains(g.assoc[Canonicalize(word)], Canonicalize(other))
}

// Insert sets or overwrites the associations of word. The associations must
// already be canonical; duplicates are dropped.
func (g *Graph) Insert(word string, associations []string) {
	word = Canonicalize(word)
	if old, ok := g.assoc[word]; ok {
		for _, w := range old {
			g.unref(w)
		}
	}

	set := make([]string, 0, len(associations))
	seen := make(map[string]struct{}, len(associations))
	for _, w := range associations {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		set = append(set, w)
	}
	g.assoc[word] = set
	delete(g.frontier, word)
	for _, w := range set {
		g.ref(w)
	}
}

// addEdge appends to to the set of key from. from must be a key.
func (g *Graph) addEdge(from, to string) {
	g.assoc[from] = append(g.assoc[from], to)
	g.ref(to)
}

func (g *Graph) ref(w string) {
	g.refs[w]++
	if _, isKey := g.assoc[w]; !isKey {
		g.frontier[w] = struct{}{}
	}
}

func (g *Graph) unref(w string) {
	g.refs[w]--
	if g.refs[w] <= 0 {
		delete(g.refs, w)
		delete(g.frontier, w)
	}
}

// Seen reports whether word appears as an association of any key.
func (g *Graph) Seen(word string) bool {
	return g.refs[word] > 0
}

// Len returns the number of keys.
func (g *Graph) Len() int { return len(g.assoc) }

// Keys returns all keys in lexicographic order.
func (g *Graph) Keys() []string {
	keys := make([]string, 0, len(g.assoc))
	for k := range g.assoc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValueWords returns the number of distinct words used as associations.
func (g *Graph) ValueWords() int { return len(g.refs) }

// FrontierLen returns the number of words referenced but not yet explored.
func (g *Graph) FrontierLen() int { return len(g.frontier) }

// Frontier returns the unexplored words in lexicographic order.
func (g *Graph) Frontier() []string {
	out := make([]string, 0, len(g.frontier))
	for w := range g.frontier {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// NextFrontier picks the next word to explore: the lexicographically smallest
// frontier word. It returns false when the frontier is empty.
func (g *Graph) NextFrontier() (string, bool) {
	var next string
	found := false
	for w := range g.frontier {
		if !found || w < next {
			next = w
			found = true
		}
	}
	return next, found
}

// Snapshot returns a deep copy of the graph with every association set
// sorted. This is the persisted form.
func (g *Graph) Snapshot() map[string][]string {
	out := make(map[string][]string, len(g.assoc))
	for k, v := range g.assoc {
		words := slices.Clone(v)
		sort.Strings(words)
		if words == nil {
			words = []string{}
		}
		out[k] = words
	}
	return out
}

// Clone returns an independent copy of g.
func (g *Graph) Clone() *Graph {
	c := New()
	for k, v := range g.assoc {
		c.assoc[k] = slices.Clone(v)
	}
	for k, v := range g.refs {
		c.refs[k] = v
	}
	for k := range g.frontier {
		c.frontier[k] = struct{}{}
	}
	return c
}
