package dedup

import "github.com/xrash/smetrics"

// Score returns the normalized indel similarity of a and b in [0, 100].
//
// It is 100 * (1 - d/(len(a)+len(b))) where d is the insert/delete edit
// distance, a substitution counting as one delete plus one insert.
// Lengths and edits are counted in bytes, not runes, so a non-ASCII
// character weighs as much as its UTF-8 encoding.
// Two empty strings score 100.
func Score(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	if a == b {
		return 100
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return float64(100*(total-d)) / float64(total)
}

// scoreUpperBound is the best Score a and b could reach given only their
// lengths. It lets the matcher skip pairs that cannot pass the threshold.
func scoreUpperBound(la, lb int) float64 {
	total := la + lb
	if total == 0 {
		return 100
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return float64(100*(total-diff)) / float64(total)
}
