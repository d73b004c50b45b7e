package layers

// Combine unions two schedules layer by layer, aligned on their root
// layers. The shorter schedule is padded with empty leading layers.
// Combine is commutative and Combine(a, a) equals a.
func Combine(a, b Schedule) Schedule {
	if len(a) < len(b) {
		a, b = b, a
	}
	offset := len(a) - len(b)

	out := make(Schedule, len(a))
	for i := range a {
		set := a[i].set()
		if j := i - offset; j >= 0 {
			for _, n := range b[j] {
				set[n] = true
			}
		}
		out[i] = fromSet(set)
	}
	return out
}
