package wordgraph

// WalkStep records the state of a graph walk after one word was visited.
type WalkStep struct {
	Index      int
	Word       string
	Walked     int
	Unexplored int
}

// Walk visits every word reachable from start and reports, per visited word,
// how many words were walked and how many are still pending. Words that are
// not keys are visited but have no outgoing associations.
func Walk(g *Graph, start string) ([]WalkStep, error) {
	start = Canonicalize(start)
	if !g.Has(start) {
		return nil, ErrNotFound
	}

	pending := map[string]struct{}{start: {}}
	walked := make(map[string]struct{})
	var steps []WalkStep
	for len(pending) > 0 {
		word := smallest(pending)
		delete(pending, word)
		walked[word] = struct{}{}
		for _, w := range g.assoc[word] {
			if _, done := walked[w]; !done {
				pending[w] = struct{}{}
			}
		}
		steps = append(steps, WalkStep{
			Index:      len(steps) + 1,
			Word:       word,
			Walked:     len(walked),
			Unexplored: len(pending),
		})
	}
	return steps, nil
}

func smallest(set map[string]struct{}) string {
	var best string
	first := true
	for w := range set {
		if first || w < best {
			best, first = w, false
		}
	}
	return best
}
