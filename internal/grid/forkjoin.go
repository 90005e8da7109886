package grid

// DefaultCutoff is the range length below which fork-join tasks stop
// splitting and run sequentially.
const DefaultCutoff = 1000

// divide runs leaf over [lo, hi) by recursive halving. Ranges no longer than
// cutoff run leaf directly; larger ranges fork the left half onto a new
// goroutine, run the right half inline and merge both results after the join.
// merge always receives the lower half first.
func divide[T any](lo, hi, cutoff int, leaf func(lo, hi int) T, merge func(left, right T) T) T {
	if cutoff < 1 {
		cutoff = 1
	}
	if hi-lo <= cutoff {
		return leaf(lo, hi)
	}

	mid := lo + (hi-lo)/2
	done := make(chan T, 1)
	go func() {
		done <- divide(lo, mid, cutoff, leaf, merge)
	}()
	right := divide(mid, hi, cutoff, leaf, merge)
	left := <-done
	return merge(left, right)
}
