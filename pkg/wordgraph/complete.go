package wordgraph

import "slices"

// Complete makes the graph symmetric over its key set: whenever K lists C and
// C is a key, K is added to C's associations. It is a single sweep over the
// keys present when called; edges it adds are not swept again.
// It returns the number of edges added.
func Complete(g *Graph) int {
	added := 0
	for _, key := range g.Keys() {
		// Edges appended to key earlier in the sweep are already reciprocated.
		for _, c := range slices.Clone(g.assoc[key]) {
			if _, isKey := g.assoc[c]; !isKey {
				continue
			}
			if slices.Contains(g.assoc[c], key) {
				continue
			}
			g.addEdge(c, key)
			added++
		}
	}
	return added
}
