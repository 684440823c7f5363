package meaning

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/japaniel/lexigraph/pkg/telemetry"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
)

// SynGraph is the undirected similarity graph over the useful synonyms of a
// word: two synonyms are adjacent when each lists the other.
type SynGraph struct {
	nodes []string
	adj   map[string]map[string]struct{}
	edges int
}

// BuildSynGraph builds the similarity graph over the useful synonyms in c.
// Both directions of every edge are checked against g.
func BuildSynGraph(g *wordgraph.Graph, c Classification) *SynGraph {
	s := &SynGraph{
		nodes: append([]string(nil), c.Useful...),
		adj:   make(map[string]map[string]struct{}, len(c.Useful)),
	}
	for _, n := range s.nodes {
		s.adj[n] = make(map[string]struct{})
	}
	for _, a := range s.nodes {
		assocs, _ := g.Lookup(a)
		for _, b := range assocs {
			if b == a || b == c.Target {
				continue
			}
			if _, useful := s.adj[b]; !useful {
				continue
			}
			if !g.Associated(b, a) {
				continue
			}
			if _, dup := s.adj[a][b]; dup {
				continue
			}
			s.adj[a][b] = struct{}{}
			s.adj[b][a] = struct{}{}
			s.edges++
		}
	}
	return s
}

// Nodes returns the nodes in lexicographic order.
func (s *SynGraph) Nodes() []string { return append([]string(nil), s.nodes...) }

// Edges returns the number of undirected edges.
func (s *SynGraph) Edges() int { return s.edges }

// Adjacent reports whether a and b are linked.
func (s *SynGraph) Adjacent(a, b string) bool {
	_, ok := s.adj[a][b]
	return ok
}

// Neighbors returns the neighbors of n in lexicographic order.
func (s *SynGraph) Neighbors(n string) []string {
	out := make([]string, 0, len(s.adj[n]))
	for m := range s.adj[n] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Density is the number of edges of the subgraph induced by nodes divided by
// the number of edges a complete graph on them would have. Sets of fewer
// than two nodes have density 0.
func (s *SynGraph) Density(nodes Meaning) float64 {
	n := len(nodes)
	if n < 2 {
		return 0
	}
	edges := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if s.Adjacent(nodes[i], nodes[j]) {
				edges++
			}
		}
	}
	return float64(edges) / float64(n*(n-1)/2)
}

// Components returns the connected components, each listed in BFS order
// from its lexicographically smallest node.
func (s *SynGraph) Components() [][]string {
	visited := make(map[string]bool, len(s.nodes))
	var components [][]string
	for _, start := range s.nodes {
		if visited[start] {
			continue
		}
		component := []string{}
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			component = append(component, current)
			for _, next := range s.Neighbors(current) {
				if visited[next] {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
		components = append(components, component)
	}
	return components
}

// ComponentSummaries describes every connected component by its size and
// its first node.
func (s *SynGraph) ComponentSummaries() []telemetry.ComponentSummary {
	ccs := s.Components()
	out := make([]telemetry.ComponentSummary, len(ccs))
	for i, cc := range ccs {
		out[i] = telemetry.ComponentSummary{Size: len(cc), Example: cc[0]}
	}
	return out
}

// WriteASP writes the graph as answer set programming facts, one
// edge("a","b"). line per direction of every edge.
func (s *SynGraph) WriteASP(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, a := range s.nodes {
		for _, b := range s.Neighbors(a) {
			if _, err := fmt.Fprintf(bw, "edge(%q,%q).\n", a, b); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
