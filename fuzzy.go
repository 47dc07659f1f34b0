package datetime

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MatchScorer scores the similarity of two strings as a confidence in [0,1].
// Inputs are expected to be normalized (see normalizeKey); implementations
// must be safe for concurrent use.
type MatchScorer interface {
	Score(a, b string) float64
}

// TokenSetScorer scores by token-set ratio: both strings are split into
// unique sorted tokens, and the best Levenshtein ratio across the
// {intersection, intersection+rest} combinations wins. Word order and
// repeated words therefore don't hurt the score, which suits spoken holiday
// phrases ("day of christmas" vs "Christmas Day").
type TokenSetScorer struct{}

// Score implements MatchScorer.
func (TokenSetScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ta := tokenSet(a)
	tb := tokenSet(b)

	var inter, diffA, diffB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			diffA = append(diffA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			diffB = append(diffB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(inter, " ")
	s1 := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	s2 := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	best := levenshteinRatio(base, s1)
	if r := levenshteinRatio(base, s2); r > best {
		best = r
	}
	if r := levenshteinRatio(s1, s2); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

// levenshteinRatio converts edit distance into a similarity in [0,1].
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// matchOne returns the index and confidence of the best-scoring candidate.
// Returns index -1 when candidates is empty. Equal scores keep the earlier
// candidate so results are deterministic across runs.
func matchOne(query string, candidates []string, scorer MatchScorer) (int, float64) {
	bestIdx := -1
	bestScore := 0.0
	for i, cand := range candidates {
		score := scorer.Score(query, cand)
		if bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	return bestIdx, bestScore
}
