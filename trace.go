package trace

import (
	"errors"
	"fmt"
	"slices"
)

// ChangeMode steers how Set treats the neighborhood of a write. The merge
// flags keep the trace free of redundant checkpoints: after a merging write
// no two adjacent entries carry equal values.
type ChangeMode uint32

const (
	// NoChange sets the value without touching neighboring checkpoints.
	NoChange ChangeMode = 0

	// MergeEarlier drops the write when the previous checkpoint (or the
	// initial value, if there is none) already carries the same value.
	MergeEarlier ChangeMode = 1

	// MergeLater drops the following checkpoint when it carries the same
	// value as the write.
	MergeLater ChangeMode = 2

	// MergeBoth combines MergeEarlier and MergeLater.
	MergeBoth ChangeMode = MergeEarlier | MergeLater

	// ClearFuture removes every checkpoint after the write. It must not be
	// combined with KeepFutureCycle.
	ClearFuture ChangeMode = 4

	// KeepFutureCycle re-places the overwritten value at the end-of-cycle
	// slot of the following simulation cycle, so that cycle ends on its old
	// state. It must not be combined with ClearFuture.
	KeepFutureCycle ChangeMode = 8
)

// ErrInvalidRange is returned by SetRange when begin does not order strictly
// before end.
var ErrInvalidRange = errors.New("trace: setRange requires begin < end")

// Trace stores the value history of a single signal as an ordered sequence
// of frames. Any time before the first checkpoint implicitly holds the
// initial value. A Trace is not safe for concurrent use.
type Trace[V comparable] struct {
	refs      int
	initvalue V
	frames    []*TraceFrame[V]
}

// New creates an empty trace that reports initvalue for every time. The
// trace starts with a single empty frame and a reference count of zero.
func New[V comparable](initvalue V) *Trace[V] {
	return &Trace[V]{
		initvalue: initvalue,
		frames:    []*TraceFrame[V]{newTraceFrame[V](Intern(DeltaTime{}))},
	}
}

// Retain increments the cooperative reference count.
func (t *Trace[V]) Retain() { t.refs++ }

// Release decrements the reference count and reports whether it reached
// zero, i.e. whether the caller held the last reference.
func (t *Trace[V]) Release() bool {
	if t.refs > 0 {
		t.refs--
	}
	return t.refs == 0
}

// RefCount returns the current reference count.
func (t *Trace[V]) RefCount() int { return t.refs }

// Initvalue returns the value implicitly held before the first checkpoint.
func (t *Trace[V]) Initvalue() V { return t.initvalue }

// SetInitvalue replaces the implicit pre-history value.
func (t *Trace[V]) SetInitvalue(initvalue V) { t.initvalue = initvalue }

// Get returns the value at time tm: the value of the checkpoint at or
// directly before tm, or the initial value when no checkpoint precedes it.
func (t *Trace[V]) Get(tm DeltaTimeFW) V {
	c := t.searchTime(tm)
	if t.cursorValid(c) && t.timeAt(c) == tm {
		return t.valueAt(c)
	}
	t.moveBackward(&c)
	if t.cursorValid(c) {
		return t.valueAt(c)
	}
	return t.initvalue
}

// Set writes value at time tm, merging with equal-valued neighbors.
func (t *Trace[V]) Set(value V, tm DeltaTimeFW) {
	t.SetWithMode(value, tm, MergeBoth)
}

// SetWithMode writes value at time tm under the given change mode.
func (t *Trace[V]) SetWithMode(value V, tm DeltaTimeFW, mode ChangeMode) {
	if mode&KeepFutureCycle != 0 && mode&ClearFuture != 0 {
		panic(fmt.Sprintf("trace: change mode %#x combines ClearFuture with KeepFutureCycle", uint32(mode)))
	}

	c := t.searchTime(tm)

	if t.cursorValid(c) {
		curTime := t.timeAt(c)
		curVal := t.valueAt(c)

		switch {
		case curTime == tm:
			if curVal != value {
				t.setValueAt(c, value)
			}
			t.handleChanges(c, mode, tm, curVal)

		case tm.Less(curTime):
			curVal = t.initvalue
			prev := c
			t.moveBackward(&prev)
			if t.cursorValid(prev) {
				curVal = t.valueAt(prev)
			} else if mode&MergeEarlier != 0 && value == t.initvalue {
				return
			}
			t.insertAt(c, tm, value)
			t.handleChanges(c, mode, tm, curVal)

		default:
			panic("trace: search returned a time before the requested position")
		}
		return
	}

	if !t.isEndOfFrame(c) && c.frame < len(t.frames) {
		panic("trace: search returned an unusable cursor")
	}

	// End-of-frame or end-of-trace: the write lands behind every entry of
	// the target frame.
	curVal := t.initvalue
	prev := c
	t.moveBackward(&prev)
	if t.cursorValid(prev) {
		curVal = t.valueAt(prev)
	}
	if mode&MergeEarlier != 0 && curVal == value {
		return
	}
	t.insertAt(c, tm, value)
	t.handleChanges(c, mode, tm, curVal)
}

// handleChanges applies the post-write actions of a change mode, in a fixed
// order: the future-cycle re-placement first, then merge-later before
// merge-earlier so the cursor stays valid between the two, then the future
// clearing.
func (t *Trace[V]) handleChanges(c cursor, mode ChangeMode, tm DeltaTimeFW, curVal V) {
	if mode&KeepFutureCycle != 0 {
		t.SetWithMode(curVal, Intern(tm.Get().AddCycles(1)), MergeBoth)
	}

	if !t.cursorValid(c) {
		return
	}

	if mode&MergeLater != 0 {
		t.mergeLater(c)
	}
	if mode&MergeEarlier != 0 {
		t.mergeEarlier(c)
	}
	if mode&ClearFuture != 0 {
		t.clearFuture(c)
	}
}

// mergeLater erases the forward neighbor of c when it repeats c's value.
func (t *Trace[V]) mergeLater(c cursor) {
	next := c
	t.moveForward(&next)
	if t.cursorValid(next) && t.valueAt(next) == t.valueAt(c) {
		t.eraseAt(next)
	}
}

// mergeEarlier erases the entry under c when its backward neighbor already
// carries the same value.
func (t *Trace[V]) mergeEarlier(c cursor) {
	prev := c
	t.moveBackward(&prev)
	if t.cursorValid(prev) && t.valueAt(prev) == t.valueAt(c) {
		t.eraseAt(c)
	}
}

// clearFuture drops every checkpoint strictly after c.
func (t *Trace[V]) clearFuture(c cursor) {
	t.frames = slices.Delete(t.frames, c.frame+1, len(t.frames))
	t.frames[c.frame].Truncate(c.pos + 1)
}

// SetRange overwrites the half-open interval [begin, end) with value. All
// checkpoints strictly inside the interval are removed; a checkpoint at
// begin survives only when the value actually changes there, and a
// checkpoint at end restores whatever value held at the end of the
// pre-existing history inside the interval.
func (t *Trace[V]) SetRange(value V, begin, end DeltaTimeFW) error {
	if !begin.Less(end) {
		return fmt.Errorf("%w: begin %s, end %s", ErrInvalidRange, begin, end)
	}

	c := t.searchTime(begin)

	lastValue := t.initvalue
	{
		prev := c
		t.moveBackward(&prev)
		if t.cursorValid(prev) {
			lastValue = t.valueAt(prev)
		}
	}

	currentValue := lastValue
	if t.cursorValid(c) && t.timeAt(c) == begin {
		currentValue = t.valueAt(c)
	}

	doSetBegin := lastValue != value

	// The first two checkpoints found inside [begin, end] are kept as
	// recycled slots for the begin and end writes; any further ones are
	// erased in place.
	var beginCur, endCur cursor
	hasBegin, hasEnd := false, false

	for t.cursorValid(c) && t.timeAt(c).Compare(end) <= 0 {
		currentValue = t.valueAt(c)
		if hasEnd {
			t.eraseAt(c)
			continue
		}
		if !hasBegin {
			beginCur = c
			hasBegin = true
		} else {
			endCur = c
			hasEnd = true
		}
		t.moveForward(&c)
	}

	doSetEnd := currentValue != value

	if hasEnd {
		// Merge with an identical successor before recycling the end slot.
		if t.cursorValid(c) && t.valueAt(c) == currentValue {
			t.eraseAt(c)
		}
		if doSetEnd {
			t.setTimeAt(endCur, end)
			t.setValueAt(endCur, currentValue)
		} else {
			t.eraseAt(endCur)
		}
	} else if doSetEnd {
		t.insertAt(c, end, currentValue)
	}

	if hasBegin {
		if doSetBegin {
			t.setTimeAt(beginCur, begin)
			t.setValueAt(beginCur, value)
		} else {
			t.eraseAt(beginCur)
		}
	} else if doSetBegin {
		t.insertAt(c, begin, value)
	}

	return nil
}

// Clear removes every checkpoint, leaving a single empty frame.
func (t *Trace[V]) Clear() {
	t.frames[0].Reset(Intern(DeltaTime{}))
	t.frames = slices.Delete(t.frames, 1, len(t.frames))
}

// Changed reports whether the value at tm differs from the value held just
// before tm's simulation cycle started, i.e. whether the signal exhibits a
// net change within that cycle up to tm.
func (t *Trace[V]) Changed(tm DeltaTimeFW) bool {
	c := t.searchTime(tm)

	currentVal := t.initvalue
	if t.cursorValid(c) && t.timeAt(c) == tm {
		currentVal = t.valueAt(c)
	} else {
		t.moveBackward(&c)
		if t.cursorValid(c) {
			currentVal = t.valueAt(c)
		}
	}

	simcycle := tm.Get().Simcycle()
	for t.cursorValid(c) && t.timeAt(c).Get().Simcycle() == simcycle {
		t.moveBackward(&c)
	}

	prevVal := t.initvalue
	if t.cursorValid(c) {
		prevVal = t.valueAt(c)
	}
	return prevVal != currentVal
}

// Checkpoint returns the time of the checkpoint at or directly before tm,
// or (0, 0) when no checkpoint precedes it.
func (t *Trace[V]) Checkpoint(tm DeltaTimeFW) DeltaTime {
	c := t.searchTime(tm)

	if t.cursorValid(c) && t.timeAt(c) == tm {
		return tm.Get()
	}

	t.moveBackward(&c)
	if t.cursorValid(c) {
		return t.timeAt(c).Get()
	}
	return DeltaTime{}
}

// PrevCheckpoint returns the last checkpoint time strictly before baseTime.
func (t *Trace[V]) PrevCheckpoint(baseTime DeltaTimeFW) (DeltaTimeFW, bool) {
	if !t.HasCheckpoints() {
		return DeltaTimeFW{}, false
	}

	c := t.searchTime(baseTime)
	if !t.cursorValid(c) {
		t.moveBackward(&c)
	}
	for t.cursorValid(c) && t.timeAt(c).Compare(baseTime) >= 0 {
		t.moveBackward(&c)
	}

	if t.cursorValid(c) {
		return t.timeAt(c), true
	}
	return DeltaTimeFW{}, false
}

// NextCheckpoint returns the first checkpoint time strictly after baseTime.
// When baseTime lies after the last entry of a frame that is not full and
// before the leader of the following frame, the search stops at the end of
// that frame and no checkpoint is reported.
func (t *Trace[V]) NextCheckpoint(baseTime DeltaTimeFW) (DeltaTimeFW, bool) {
	c := t.searchTime(baseTime)
	for t.cursorValid(c) && t.timeAt(c).Compare(baseTime) <= 0 {
		t.moveForward(&c)
	}

	if t.cursorValid(c) {
		return t.timeAt(c), true
	}
	return DeltaTimeFW{}, false
}

// FirstCheckpoint returns the earliest checkpoint time, or (0, 0) when the
// trace is empty.
func (t *Trace[V]) FirstCheckpoint() DeltaTimeFW {
	it, end := t.Begin(), t.End()
	if it.Equal(end) {
		return Intern(DeltaTime{})
	}
	return it.Time()
}

// LastCheckpoint returns the latest checkpoint time, or (0, 0) when the
// trace is empty.
func (t *Trace[V]) LastCheckpoint() DeltaTimeFW {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if f := t.frames[i]; f != nil && f.used != 0 {
			return f.times[f.used-1]
		}
	}
	return Intern(DeltaTime{})
}

// HasCheckpoints reports whether the trace stores at least one checkpoint.
func (t *Trace[V]) HasCheckpoints() bool {
	return len(t.frames) > 0 && t.frames[0].used != 0
}

// NumberOfCheckpoints returns the number of stored checkpoints.
func (t *Trace[V]) NumberOfCheckpoints() int {
	n := 0
	for _, f := range t.frames {
		n += f.used
	}
	return n
}

// Capacity returns the total entry capacity of the allocated frames, always
// a multiple of TraceFrameSize.
func (t *Trace[V]) Capacity() int { return len(t.frames) * TraceFrameSize }

// ComputeCheckpoints returns every checkpoint time in order.
func (t *Trace[V]) ComputeCheckpoints() []DeltaTimeFW {
	ret := make([]DeltaTimeFW, 0, t.NumberOfCheckpoints())
	for _, f := range t.frames {
		ret = append(ret, f.Times()...)
	}
	return ret
}

// RemoveDeltaCycles collapses within-cycle delta transitions: afterwards the
// trace keeps at most one checkpoint per simulation cycle, at the cycle's
// end-of-cycle slot, and only for cycles whose terminal value differs from
// the previously surviving one. The pass streams the entries once, writing
// the surviving checkpoints over the front of the existing storage and
// truncating the stale tail.
func (t *Trace[V]) RemoveDeltaCycles() {
	write := cursor{}
	read := cursor{}

	currentCycle := uint64(0)
	currentValue := t.initvalue
	previousValue := t.initvalue

	for t.cursorValid(read) {
		cycle := t.timeAt(read).Get().Simcycle()
		if currentCycle != cycle && currentValue != previousValue {
			t.writeEndOfCycle(&write, currentCycle, currentValue)
			previousValue = currentValue
		}

		currentCycle = cycle
		currentValue = t.valueAt(read)
		t.moveForward(&read)
	}

	if currentValue != previousValue {
		t.writeEndOfCycle(&write, currentCycle, currentValue)
	}

	if t.cursorValid(write) {
		t.truncateFrames(write)
	}
}

// writeEndOfCycle emits one surviving end-of-cycle checkpoint at the write
// cursor, overwriting the slot in place when it is still live, and advances
// the cursor.
func (t *Trace[V]) writeEndOfCycle(write *cursor, cycle uint64, value V) {
	eoc := Intern(EndOfCycle(cycle))

	if t.cursorValid(*write) {
		t.setTimeAt(*write, eoc)
		t.setValueAt(*write, value)
	} else {
		t.insertAt(*write, eoc, value)
	}

	t.moveForward(write)
}

// Clone returns an independent copy of the trace with a fresh reference
// count of zero.
func (t *Trace[V]) Clone() *Trace[V] {
	clone := New[V](t.initvalue)
	c := cursor{}
	for t.cursorValid(c) {
		clone.appendVal(t.valueAt(c), t.timeAt(c))
		t.moveForward(&c)
	}
	return clone
}

// CloneUpperBound copies the trace restricted to times at or before
// upperBound.
func (t *Trace[V]) CloneUpperBound(upperBound DeltaTimeFW) *Trace[V] {
	clone := New[V](t.initvalue)
	c := cursor{}
	for t.cursorValid(c) && t.timeAt(c).Compare(upperBound) <= 0 {
		clone.appendVal(t.valueAt(c), t.timeAt(c))
		t.moveForward(&c)
	}
	return clone
}

// CheckConsistency panics when the trace violates its structural
// invariants: at least one frame, only the leading frame may be empty,
// frame occupancy within capacity, and strictly increasing times across the
// flattened frame sequence.
func (t *Trace[V]) CheckConsistency() {
	if len(t.frames) == 0 {
		panic("trace: no frames")
	}

	var last DeltaTimeFW
	haveLast := false
	for i, f := range t.frames {
		if f.used < 0 || f.used > TraceFrameSize {
			panic(fmt.Sprintf("trace: frame %d occupancy %d out of range", i, f.used))
		}
		if i > 0 && f.used == 0 {
			panic(fmt.Sprintf("trace: empty non-leading frame %d", i))
		}
		for pos := 0; pos < f.used; pos++ {
			tm := f.times[pos]
			if haveLast && tm.Compare(last) <= 0 {
				panic(fmt.Sprintf("trace: time order violated at frame %d pos %d (%s after %s)", i, pos, tm, last))
			}
			last, haveLast = tm, true
		}
	}
}
