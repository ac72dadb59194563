package completion

import (
	"sort"
	"strings"

	edlib "github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/javaintel/jcore/internal/jtypes"
)

// Ranker is a pure post-filter over an already-admitted candidate list
// (spec.md §4.E "Sorting/deduplication": "ordering is the assembly order
// above, which the editor may re-sort"). It never changes which
// candidates are present, only their order, so the §8 admission
// properties hold regardless of whether ranking is enabled.
//
// Grounded on the teacher's internal/semantic.FuzzyMatcher (Jaro-Winkler
// via go-edlib) and internal/semantic.Stemmer (Porter2 via
// surgebase/porter2), adapted from "find similar terms in a search index"
// to "order completion candidates by resemblance to what was typed".
type Ranker struct {
	enabled bool
}

// NewRanker returns a Ranker with Jaro-Winkler similarity ranking
// enabled. Rank is a best-effort convenience the spec does not require;
// an empty prefix disables it (every candidate matches equally well).
func NewRanker() *Ranker {
	return &Ranker{enabled: true}
}

type scored struct {
	idx   int
	score float64
}

// Order returns candidates sorted by descending similarity of each
// candidate's simple name to prefix. When ranking is disabled, prefix is
// empty, or there are fewer than two candidates, it returns the input
// slice itself; otherwise it returns a new slice. Ties keep assembly order
// (stable sort), which is what "the editor may re-sort" relies on as a
// sane default.
func (r *Ranker) Order(candidates []jtypes.Candidate, prefix string) []jtypes.Candidate {
	if !r.enabled || prefix == "" || len(candidates) < 2 {
		return candidates
	}

	stemmedPrefix := stemWord(prefix)
	scores := make([]scored, len(candidates))
	for i, c := range candidates {
		scores[i] = scored{idx: i, score: similarity(c.SimpleName(), prefix, stemmedPrefix)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	out := make([]jtypes.Candidate, len(candidates))
	for i, s := range scores {
		out[i] = candidates[s.idx]
		out[i].SortKey = s.score
	}
	return out
}

// similarity combines an exact-prefix bonus (every admitted candidate
// already satisfies MatchesPartialName, but a shorter remainder after the
// prefix is a closer match) with Jaro-Winkler similarity over Porter2
// stems, so "Strategy" ranks ahead of "StrategyPattern" when the prefix is
// "Strat" but "Running" still ranks near "Run" when stemming collapses
// both to "run".
func similarity(name, prefix, stemmedPrefix string) float64 {
	if name == "" {
		return 0
	}
	prefixBonus := 0.0
	if strings.HasPrefix(name, prefix) {
		prefixBonus = 1.0 / float64(1+len(name)-len(prefix))
	}

	score, err := edlib.StringsSimilarity(stemWord(name), stemmedPrefix, edlib.JaroWinkler)
	if err != nil {
		return prefixBonus
	}
	return prefixBonus + float64(score)
}

func stemWord(word string) string {
	if len(word) < 3 {
		return word
	}
	return porter2.Stem(strings.ToLower(word))
}
