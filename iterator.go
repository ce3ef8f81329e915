package trace

// Iterator walks the checkpoints of a trace in time order. It is read-only
// and invalidated by any mutating trace operation. Dereferencing an
// iterator that equals End is a programmer error.
type Iterator[V comparable] struct {
	t *Trace[V]
	c cursor
}

// Begin returns an iterator on the first checkpoint. On an empty trace it
// already equals End.
func (t *Trace[V]) Begin() Iterator[V] {
	return Iterator[V]{t: t, c: cursor{}}
}

// End returns the past-the-end sentinel iterator.
func (t *Trace[V]) End() Iterator[V] {
	return Iterator[V]{t: t, c: endCursor}
}

// Next advances the iterator to the following checkpoint.
func (it *Iterator[V]) Next() { it.t.moveForward(&it.c) }

// Time returns the checkpoint time under the iterator.
func (it Iterator[V]) Time() DeltaTimeFW { return it.t.timeAt(it.c) }

// Value returns the checkpoint value under the iterator.
func (it Iterator[V]) Value() V { return it.t.valueAt(it.c) }

// Equal reports whether both iterators address the same position. Two
// iterators with invalid cursors are equal regardless of how they ran off
// the trace.
func (it Iterator[V]) Equal(other Iterator[V]) bool {
	if it.c == other.c {
		return true
	}
	return !it.t.cursorValid(it.c) && !other.t.cursorValid(other.c)
}

// CompareTraces walks two traces in lock-step by time and reports whether
// they describe the same value history. Every divergence is reported to log
// as (time, value in a, value in b); log may be nil. Structural layout does
// not matter, only the observable values: a trace holding redundant
// checkpoints compares equal to its merged form.
func CompareTraces[V comparable](a, b *Trace[V], log func(at DeltaTime, aVal, bVal V)) bool {
	return compareTraces(a, b, log, false)
}

// Equal reports whether both traces describe the same value history,
// stopping at the first difference.
func (t *Trace[V]) Equal(other *Trace[V]) bool {
	return compareTraces(t, other, nil, true)
}

func compareTraces[V comparable](a, b *Trace[V], log func(at DeltaTime, aVal, bVal V), stopEarly bool) bool {
	itA, endA := a.Begin(), a.End()
	itB, endB := b.Begin(), b.End()

	currentA := a.initvalue
	currentB := b.initvalue
	currentTime := DeltaTime{}

	advanceA := func() {
		currentA = itA.Value()
		currentTime = itA.Time().Get()
		itA.Next()
	}
	advanceB := func() {
		currentB = itB.Value()
		currentTime = itB.Time().Get()
		itB.Next()
	}

	equal := true
	for !(itA.Equal(endA) && itB.Equal(endB)) {
		switch {
		case itA.Equal(endA):
			// a ran out; its held value stands for all later times.
			advanceB()
		case itB.Equal(endB):
			advanceA()
		default:
			timeA, timeB := itA.Time(), itB.Time()
			switch {
			case timeA.Less(timeB):
				advanceA()
			case timeB.Less(timeA):
				advanceB()
			default:
				currentA = itA.Value()
				currentB = itB.Value()
				currentTime = timeA.Get()
				itA.Next()
				itB.Next()
			}
		}

		if currentA != currentB {
			equal = false
			if log != nil {
				log(currentTime, currentA, currentB)
			}
			if stopEarly {
				return false
			}
		}
	}
	return equal
}
