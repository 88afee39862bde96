package sampler

import "iter"

// Product enumerates the Cartesian product of ranges in odometer order: the
// last range varies fastest. Each yielded tuple is a fresh slice the caller
// may keep. An empty range anywhere makes the product empty; no ranges at
// all yield nothing.
func Product(ranges [][]int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if len(ranges) == 0 {
			return
		}
		for _, r := range ranges {
			if len(r) == 0 {
				return
			}
		}

		pos := make([]int, len(ranges))
		for {
			tuple := make([]int, len(ranges))
			for i, p := range pos {
				tuple[i] = ranges[i][p]
			}
			if !yield(tuple) {
				return
			}

			// 末尾の桁から繰り上げる
			axis := len(pos) - 1
			for ; axis >= 0; axis-- {
				pos[axis]++
				if pos[axis] < len(ranges[axis]) {
					break
				}
				pos[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}

// ProductSize is the number of tuples Product(ranges) yields.
func ProductSize(ranges [][]int) int {
	if len(ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range ranges {
		n *= len(r)
	}
	return n
}

// Indices returns [0, 1, ..., n-1], the range of lattice indices of one axis.
func Indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
