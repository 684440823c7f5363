package wordgraph

import (
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"Amuser":          "amuser",
		"s'amuser":        "amuser",
		"S'Amuser":        "amuser",
		"se promener":     "promener",
		"SE Promener":     "promener",
		"secret":          "secret",
		"s'":              "",
		"s's'amuser":      "amuser",
		"se s'amuser":     "amuser",
		"Été":             "été",
		"e\u0301te\u0301": "été",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	words := []string{"s'amuser", "se se promener", "RIRE", "s'se x", "Œuvre", "", "se", "s", "seau"}
	for _, w := range words {
		once := Canonicalize(w)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q then %q", w, once, twice)
		}
	}
	if Canonicalize("s'amuser") != Canonicalize("amuser") {
		t.Errorf("reflexive elided form should match bare verb")
	}
	if Canonicalize("se promener") != Canonicalize("promener") {
		t.Errorf("reflexive full form should match bare verb")
	}
}

func TestCanonicalizeAllDedupes(t *testing.T) {
	got := CanonicalizeAll([]string{"Rire", "rire", "s'esclaffer", "esclaffer", "sourire"})
	want := []string{"rire", "esclaffer", "sourire"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLookupDistinguishesEmptyFromUnexplored(t *testing.T) {
	g := New()
	g.Insert("vide", nil)

	words, ok := g.Lookup("vide")
	if !ok {
		t.Fatalf("expected vide to be a key")
	}
	if len(words) != 0 {
		t.Fatalf("expected empty set, got %v", words)
	}
	if _, ok := g.Lookup("inconnu"); ok {
		t.Fatalf("inconnu should be unexplored")
	}
	if !g.Has("VIDE") {
		t.Fatalf("Has should canonicalize its argument")
	}
}

func TestFrontierTracksInsertions(t *testing.T) {
	g := New()
	g.Insert("a", []string{"b", "c", "b"})
	if got := g.Frontier(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("frontier = %v", got)
	}
	if words, _ := g.Lookup("a"); !reflect.DeepEqual(words, []string{"b", "c"}) {
		t.Fatalf("duplicates should be dropped, got %v", words)
	}

	g.Insert("b", []string{"a"})
	if next, ok := g.NextFrontier(); !ok || next != "c" {
		t.Fatalf("NextFrontier = %q, %v", next, ok)
	}

	// Overwriting a key releases words nobody references anymore.
	g.Insert("a", []string{"b"})
	if g.FrontierLen() != 0 {
		t.Fatalf("expected empty frontier, got %v", g.Frontier())
	}
	if g.Seen("c") {
		t.Fatalf("c should no longer be referenced")
	}
	if _, ok := g.NextFrontier(); ok {
		t.Fatalf("NextFrontier should report an empty frontier")
	}
}

func TestFromMapMergesCollidingKeys(t *testing.T) {
	g := FromMap(map[string][]string{
		"s'amuser": {"jouer"},
		"amuser":   {"Divertir"},
	})
	if g.Len() != 1 {
		t.Fatalf("expected 1 key, got %v", g.Keys())
	}
	words, _ := g.Lookup("amuser")
	if !reflect.DeepEqual(words, []string{"divertir", "jouer"}) {
		t.Fatalf("got %v", words)
	}
}

func TestSnapshotIsSortedCopy(t *testing.T) {
	g := New()
	g.Insert("a", []string{"c", "b"})
	g.Insert("z", nil)
	snap := g.Snapshot()
	if !reflect.DeepEqual(snap["a"], []string{"b", "c"}) {
		t.Fatalf("snapshot not sorted: %v", snap["a"])
	}
	if snap["z"] == nil || len(snap["z"]) != 0 {
		t.Fatalf("empty key should snapshot to an empty slice, got %#v", snap["z"])
	}
	snap["a"][0] = "mutated"
	if words, _ := g.Lookup("a"); words[0] != "c" {
		t.Fatalf("snapshot must not alias graph storage")
	}
}

func TestClone(t *testing.T) {
	g := New()
	g.Insert("a", []string{"b"})
	c := g.Clone()
	c.Insert("b", []string{"a"})
	if g.Has("b") {
		t.Fatalf("clone mutation leaked into original")
	}
	if g.FrontierLen() != 1 || c.FrontierLen() != 0 {
		t.Fatalf("frontiers diverged unexpectedly: %d %d", g.FrontierLen(), c.FrontierLen())
	}
}
