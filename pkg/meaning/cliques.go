package meaning

import (
	"sort"
	"strings"
)

// Meaning is a sorted set of words. Meanings are never modified in place.
type Meaning []string

// NewMeaning returns the meaning holding words.
func NewMeaning(words ...string) Meaning {
	m := append(Meaning(nil), words...)
	sort.Strings(m)
	out := m[:0]
	for i, w := range m {
		if i > 0 && w == m[i-1] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Union returns the words of m and o.
func (m Meaning) Union(o Meaning) Meaning {
	out := make(Meaning, 0, len(m)+len(o))
	i, j := 0, 0
	for i < len(m) && j < len(o) {
		switch {
		case m[i] < o[j]:
			out = append(out, m[i])
			i++
		case m[i] > o[j]:
			out = append(out, o[j])
			j++
		default:
			out = append(out, m[i])
			i++
			j++
		}
	}
	out = append(out, m[i:]...)
	return append(out, o[j:]...)
}

// Contains reports whether every word of o is in m.
func (m Meaning) Contains(o Meaning) bool {
	i := 0
	for _, w := range o {
		for i < len(m) && m[i] < w {
			i++
		}
		if i == len(m) || m[i] != w {
			return false
		}
		i++
	}
	return true
}

// Has reports whether w is in m.
func (m Meaning) Has(w string) bool {
	i := sort.SearchStrings(m, w)
	return i < len(m) && m[i] == w
}

func (m Meaning) String() string {
	return "{" + strings.Join(m, ", ") + "}"
}

// MaximalCliques returns every maximal clique of s, found with the
// Bron–Kerbosch algorithm with pivoting. Cliques are sorted
// lexicographically; isolated nodes are cliques of one.
func MaximalCliques(s *SynGraph) []Meaning {
	var out []Meaning
	p := make(map[string]struct{}, len(s.nodes))
	for _, n := range s.nodes {
		p[n] = struct{}{}
	}
	bronKerbosch(s, nil, p, map[string]struct{}{}, &out)

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return out
}

func bronKerbosch(s *SynGraph, r []string, p, x map[string]struct{}, out *[]Meaning) {
	if len(p) == 0 {
		if len(x) == 0 && len(r) > 0 {
			*out = append(*out, NewMeaning(r...))
		}
		return
	}

	// The pivot has the most neighbors among the candidates; its
	// neighbors need no branch of their own.
	pivot, best := "", -1
	for _, set := range []map[string]struct{}{p, x} {
		for u := range set {
			n := 0
			for v := range p {
				if s.Adjacent(u, v) {
					n++
				}
			}
			if n > best || (n == best && u < pivot) {
				pivot, best = u, n
			}
		}
	}

	var candidates []string
	for v := range p {
		if !s.Adjacent(pivot, v) {
			candidates = append(candidates, v)
		}
	}
	sort.Strings(candidates)

	for _, v := range candidates {
		np := make(map[string]struct{})
		nx := make(map[string]struct{})
		for u := range s.adj[v] {
			if _, ok := p[u]; ok {
				np[u] = struct{}{}
			}
			if _, ok := x[u]; ok {
				nx[u] = struct{}{}
			}
		}
		bronKerbosch(s, append(r[:len(r):len(r)], v), np, nx, out)
		delete(p, v)
		x[v] = struct{}{}
	}
}
