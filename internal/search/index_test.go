package search

import (
	"math"
	"sync"
	"testing"
)

var leads = []Document{
	{ID: "tmt", Text: "TMT steel bars Fe-500 | Construction | Pune"},
	{ID: "pipes", Text: "Steel pipes for irrigation | Agriculture | Nashik"},
	{ID: "cement", Text: "OPC cement 500 bags | Construction | Pune"},
	{ID: "blank", Text: "   "},
}

func ids(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRank_JaccardOrder(t *testing.T) {
	r := NewRanker(WithStopwords(DefaultStopwords))

	got := r.Rank("steel bars", leads)
	if len(got) != 2 || got[0].ID != "tmt" || got[1].ID != "pipes" {
		t.Fatalf("order = %v", ids(got))
	}
	// tmt tokens: tmt steel bars fe 500 construction pune -> 2 shared of 7
	if math.Abs(got[0].Score-2.0/7.0) > 1e-9 {
		t.Fatalf("tmt score = %v", got[0].Score)
	}
	if !(got[0].Score > got[1].Score) || got[1].Score <= 0 || got[0].Score > 1 {
		t.Fatalf("scores = %v", got)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	r := NewRanker()
	docs := []Document{{ID: "new", Text: "pune steel"}, {ID: "old", Text: "pune cement"}}
	got := r.Rank("pune", docs)
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" || got[0].Score != got[1].Score {
		t.Fatalf("tie order = %v", got)
	}
}

func TestRank_CaseFolding(t *testing.T) {
	r := NewRanker()
	docs := []Document{{ID: "de", Text: "Stahlträger STRASSE"}, {ID: "en", Text: "Steel"}}
	if got := ids(r.Rank("strasse", docs)); len(got) != 1 || got[0] != "de" {
		t.Fatalf("fold match = %v", got)
	}
	if got := ids(r.Rank("STEEL", docs)); len(got) != 1 || got[0] != "en" {
		t.Fatalf("upper-case query = %v", got)
	}
}

func TestRank_NoMatches(t *testing.T) {
	r := NewRanker(WithStopwords([]string{"  The ", "", "FOR"}))
	cases := map[string]string{
		"empty":      "",
		"blank":      "   ",
		"punct only": "--- ???",
		"stopwords":  "the for",
		"unknown":    "granite",
	}
	for name, q := range cases {
		if got := r.Rank(q, leads); got != nil {
			t.Errorf("%s: Rank(%q) = %v", name, q, got)
		}
	}
	if got := r.Rank("steel", nil); got != nil {
		t.Fatalf("no documents: %v", got)
	}
}

func TestWithMaxDocs(t *testing.T) {
	if got := ids(NewRanker(WithMaxDocs(1)).Rank("pune", leads)); len(got) != 1 || got[0] != "tmt" {
		t.Fatalf("capped = %v", got)
	}
	if got := ids(NewRanker(WithMaxDocs(0)).Rank("pune", leads)); len(got) != 2 {
		t.Fatalf("non-positive cap should be ignored: %v", got)
	}
}

func TestWithStopwords(t *testing.T) {
	r := NewRanker(WithStopwords([]string{" Pune ", ""}))
	if len(r.stop) != 1 {
		t.Fatalf("stop = %v", r.stop)
	}
	if got := r.Rank("pune", leads); got != nil {
		t.Fatalf("stopword still matched: %v", got)
	}
	if NewRanker(WithStopwords(nil)).stop != nil {
		t.Fatalf("empty list should leave stop nil")
	}
}

func TestRank_Concurrent(t *testing.T) {
	r := NewRanker(WithStopwords(DefaultStopwords))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Rank("construction pune", leads); len(got) != 2 {
				t.Errorf("got %v", ids(got))
			}
		}()
	}
	wg.Wait()
}
