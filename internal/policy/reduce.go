package policy

// reducer folds a stream of grace-period values (seconds) into the single
// effective one. A negative value means "no timeout" and dominates every
// value seen before it. A later non-negative value supersedes a dominant
// negative only when it is at least as large as the most restrictive
// non-negative value seen earlier in the pass; with no negative in play,
// the smallest (most restrictive) value wins. The first value initializes
// the running result unconditionally.
type reducer struct {
	set       bool
	value     int64
	negLocked bool

	// Most restrictive non-negative value seen so far, tracked across a
	// negative lock so a later, laxer positive can break it.
	minNonNeg    int64
	hasMinNonNeg bool
}

func (r *reducer) add(v int64) {
	if !r.set {
		r.set = true
		r.value = v
		r.negLocked = v < 0
	} else if v < 0 {
		r.value = v
		r.negLocked = true
	} else if r.negLocked {
		if !r.hasMinNonNeg || v >= r.minNonNeg {
			r.value = v
			r.negLocked = false
		}
	} else if v < r.value {
		r.value = v
	}

	if v >= 0 && (!r.hasMinNonNeg || v < r.minNonNeg) {
		r.minNonNeg = v
		r.hasMinNonNeg = true
	}
}

// result reports the reduced value, and false when no value was added.
func (r *reducer) result() (int64, bool) {
	return r.value, r.set
}
