package classify

import "github.com/kinolab/genrecast/internal/domain"

// PredictGenre computes a genre by majority vote over ranked candidates.
// Every candidate's genre list is flattened into one multiset and the most
// frequent label wins. Ties break deterministically: first by the best rank at
// which a label appears (the top candidate's genre wins), then by
// lexicographic order. Candidates must be passed in descending score order.
//
// Returns domain.UnknownGenre when no candidate carries any genre.
func PredictGenre(candidates []domain.SearchCandidate) string {
	counts := make(map[string]int)
	bestRank := make(map[string]int)

	for rank, c := range candidates {
		for _, g := range c.Genres {
			counts[g]++
			if _, seen := bestRank[g]; !seen {
				bestRank[g] = rank
			}
		}
	}

	if len(counts) == 0 {
		return domain.UnknownGenre
	}

	var winner string
	for label, n := range counts {
		if winner == "" {
			winner = label
			continue
		}
		if better(label, n, winner, counts[winner], bestRank) {
			winner = label
		}
	}
	return winner
}

// better reports whether label a outranks the current winner b.
// Map iteration order never decides the outcome: every comparison bottoms out
// in count, rank, or byte order.
func better(a string, countA int, b string, countB int, bestRank map[string]int) bool {
	if countA != countB {
		return countA > countB
	}
	if bestRank[a] != bestRank[b] {
		return bestRank[a] < bestRank[b]
	}
	return a < b
}
