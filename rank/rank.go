// Package rank selects the best-scoring lines for a query without
// fully sorting the candidate set.
package rank

import (
	"slices"
	"strings"
)

// Scored pairs a relevance score with a corpus line. Line is a borrowed
// reference into the corpus, never a copy.
type Scored struct {
	Score int
	Line  string
}

// compare orders by score descending, then line text descending. The
// secondary key makes equal-score ordering a total order independent of
// corpus iteration order, so identical inputs always rank identically.
func compare(a, b Scored) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	return strings.Compare(b.Line, a.Line)
}

// Top returns the limit highest-ranked items in final order, reordering
// items in place. With no limit (limit <= 0) or fewer items than the
// limit, the whole slice is sorted and returned. Otherwise a
// median-of-three quickselect brings the best limit items to the front
// in expected linear time, and only that prefix is sorted.
func Top(items []Scored, limit int) []Scored {
	if limit <= 0 || len(items) <= limit {
		slices.SortFunc(items, compare)
		return items
	}
	selectTop(items, limit)
	top := items[:limit]
	slices.SortFunc(top, compare)
	return top
}

// selectTop partitions items so the k best under compare occupy
// items[:k], in no particular order.
func selectTop(items []Scored, k int) {
	lo, hi := 0, len(items)-1
	for lo < hi {
		p := partition(items, lo, hi)
		switch {
		case p < k-1:
			lo = p + 1
		case p > k:
			hi = p - 1
		default:
			// p is k-1 or k: everything left of p ranks at or above
			// the pivot, so items[:k] holds the k best.
			return
		}
	}
}

// partition picks a median-of-three pivot for items[lo..hi] and
// partitions around it, returning the pivot's final index.
func partition(items []Scored, lo, hi int) int {
	mid := lo + (hi-lo)/2
	if compare(items[mid], items[lo]) < 0 {
		items[mid], items[lo] = items[lo], items[mid]
	}
	if compare(items[hi], items[lo]) < 0 {
		items[hi], items[lo] = items[lo], items[hi]
	}
	if compare(items[hi], items[mid]) < 0 {
		items[hi], items[mid] = items[mid], items[hi]
	}
	items[mid], items[hi] = items[hi], items[mid]

	pivot := items[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if compare(items[j], pivot) < 0 {
			items[i], items[j] = items[j], items[i]
			i++
		}
	}
	items[i], items[hi] = items[hi], items[i]
	return i
}
