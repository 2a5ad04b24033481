package engine

// The algorithms below work in place on r.a and call checkpoint after every
// element they touch. Comparisons are strict, so equal values never move
// past each other. Each returns false once the run has been cancelled.

// bubble compares adjacent pairs; highlights (j, j+1).
func (r *run) bubble() bool {
	a := r.a
	n := len(a)
	for i := 0; i < n; i++ {
		for j := 0; j < n-i-1; j++ {
			if a[j] > a[j+1] {
				a[j], a[j+1] = a[j+1], a[j]
			}
			if !r.checkpoint(j, j+1) {
				return false
			}
		}
	}
	return true
}

// selection scans the unsorted suffix for its minimum and swaps it into
// place once per pass; highlights (scan index, current minimum).
func (r *run) selection() bool {
	a := r.a
	n := len(a)
	for i := 0; i < n; i++ {
		minIndex := i
		for j := i + 1; j < n; j++ {
			if a[j] < a[minIndex] {
				minIndex = j
			}
			if !r.checkpoint(j, minIndex) {
				return false
			}
		}
		if minIndex != i {
			a[i], a[minIndex] = a[minIndex], a[i]
		}
	}
	return true
}

// insertion moves each key left while its predecessor is greater;
// highlights (j, j+1) after each shift. The key travels by adjacent swaps
// so the array stays a permutation at every checkpoint.
func (r *run) insertion() bool {
	a := r.a
	for i := 1; i < len(a); i++ {
		for j := i - 1; j >= 0 && a[j] > a[j+1]; j-- {
			a[j], a[j+1] = a[j+1], a[j]
			if !r.checkpoint(j, j+1) {
				return false
			}
		}
	}
	return true
}

// mergeSort sorts a[left..right] inclusive.
func (r *run) mergeSort(left, right int) bool {
	if left >= right {
		return true
	}
	mid := left + (right-left)/2
	return r.mergeSort(left, mid) &&
		r.mergeSort(mid+1, right) &&
		r.merge(left, mid, right)
}

// merge combines the sorted runs a[left..mid] and a[mid+1..right] through
// copies of both halves; highlights the position k just written.
func (r *run) merge(left, mid, right int) bool {
	a := r.a
	lo := append([]int(nil), a[left:mid+1]...)
	hi := append([]int(nil), a[mid+1:right+1]...)

	i, j := 0, 0
	for k := left; k <= right; k++ {
		if j >= len(hi) || (i < len(lo) && !(hi[j] < lo[i])) {
			a[k] = lo[i]
			i++
		} else {
			a[k] = hi[j]
			j++
		}

		if !r.checkpoint(k, NoIndex) {
			// Positions after k still hold stale values; refill them with
			// whatever has not been merged yet.
			rest := a[k+1 : right+1]
			n := copy(rest, lo[i:])
			copy(rest[n:], hi[j:])
			return false
		}
	}
	return true
}

// quickSort sorts a[low..high] inclusive with Lomuto partitioning.
func (r *run) quickSort(low, high int) bool {
	if low >= high {
		return true
	}
	p, ok := r.partition(low, high)
	if !ok {
		return false
	}
	return r.quickSort(low, p-1) && r.quickSort(p+1, high)
}

// partition uses a[high] as the pivot; highlights (i, j) where i is the
// boundary of the "less than pivot" region and j the scan index, then
// (i, high) after the pivot swap.
func (r *run) partition(low, high int) (int, bool) {
	a := r.a
	pivot := a[high]
	i := low
	for j := low; j < high; j++ {
		if a[j] < pivot {
			a[i], a[j] = a[j], a[i]
			i++
		}
		if !r.checkpoint(i, j) {
			return i, false
		}
	}
	a[i], a[high] = a[high], a[i]
	if !r.checkpoint(i, high) {
		return i, false
	}
	return i, true
}
