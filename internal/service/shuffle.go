package service

import (
	"math/rand/v2"
)

// anchoredShuffle returns a permutation of 0..n-1 that keeps anchor at its own
// position so the current song does not move when shuffling is switched on.
//
//   - anchor 0:   [0] + shuffled(1..n-1)
//   - anchor n-1: shuffled(0..n-2) + [n-1]
//   - otherwise:  0..anchor-1 in order, anchor, shuffled(anchor+1..n-1)
//
// Songs before a middle anchor keep their order; only what is still to be
// played is shuffled.
func anchoredShuffle(n, anchor int, rng *rand.Rand) []int {
	if n <= 0 {
		return []int{}
	}
	if anchor < 0 || anchor >= n {
		anchor = 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	shuffle := func(s []int) {
		rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	}

	switch {
	case anchor == 0:
		shuffle(order[1:])
	case anchor == n-1:
		shuffle(order[:n-1])
	default:
		shuffle(order[anchor+1:])
	}
	return order
}
