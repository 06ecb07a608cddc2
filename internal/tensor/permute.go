package tensor

// ReversedAxes returns the permutation that reverses ndim dimensions.
func ReversedAxes(ndim int) []int {
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = ndim - 1 - i
	}
	return axes
}

// InversePermutation returns the permutation that undoes axes.
func InversePermutation(axes []int) []int {
	inv := make([]int, len(axes))
	for i, ax := range axes {
		inv[ax] = i
	}
	return inv
}
