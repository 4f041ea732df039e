package retriever

import (
	"sort"

	"docrag/internal/domain"
)

// Diversify bounds how much of the result set a single source document
// may occupy. A long document splits into many chunks competing in the
// same score band; without a cap it crowds every other source out of the
// results. Candidates must arrive sorted by combined score descending;
// the returned slice keeps that order, resolving ties by candidate order.
//
// Each source is capped at ceil(maxResults/2) admissions. Capped-out
// candidates re-enter only when the candidate pool has too few distinct
// sources for the cap to ever fill the result set, which keeps
// single-document collections from returning half-empty results.
func Diversify(results []domain.ScoredDoc, maxResults int) []domain.ScoredDoc {
	if maxResults <= 0 || len(results) == 0 {
		return nil
	}

	perSource := (maxResults + 1) / 2

	distinct := make(map[string]struct{}, len(results))
	for _, r := range results {
		distinct[r.Unit.SourceID()] = struct{}{}
	}
	allowBackfill := len(distinct)*perSource < maxResults

	counts := make(map[string]int, len(distinct))
	admitted := make([]int, 0, maxResults)
	var skipped []int

	for i, r := range results {
		if len(admitted) >= maxResults {
			break
		}
		source := r.Unit.SourceID()
		if counts[source] >= perSource {
			skipped = append(skipped, i)
			continue
		}
		counts[source]++
		admitted = append(admitted, i)
	}

	if allowBackfill && len(admitted) < maxResults {
		for _, i := range skipped {
			if len(admitted) >= maxResults {
				break
			}
			admitted = append(admitted, i)
		}
		// restore candidate order, which is score order with stable ties
		sort.Ints(admitted)
	}

	out := make([]domain.ScoredDoc, len(admitted))
	for j, i := range admitted {
		out[j] = results[i]
	}
	return out
}
