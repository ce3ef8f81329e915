package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIteratorEmpty tests that Begin on an empty trace already equals End.
func TestIteratorEmpty(t *testing.T) {
	assert := assert.New(t)

	tr := New[Bit](Bit0)
	assert.True(tr.Begin().Equal(tr.End()))
}

// TestIteratorWalk tests forward traversal across frame boundaries and that
// iteration yields exactly ComputeCheckpoints.
func TestIteratorWalk(t *testing.T) {
	assert := assert.New(t)

	tr := New[uint8](0)
	fillAlternating(tr, 100)

	var times []DeltaTimeFW
	last := DeltaTime{}
	for it, end := tr.Begin(), tr.End(); !it.Equal(end); it.Next() {
		tm := it.Time()
		assert.True(last.Less(tm.Get()), "iteration must be strictly increasing")
		last = tm.Get()
		times = append(times, tm)
		assert.Equal(tr.Get(tm), it.Value())
	}

	assert.Len(times, 100)
	assert.Equal(tr.ComputeCheckpoints(), times)
}

// TestIteratorEquality tests that any two run-off iterators compare equal
// while distinct live positions do not.
func TestIteratorEquality(t *testing.T) {
	assert := assert.New(t)

	tr := New[Bit](Bit0)
	tr.Set(Bit1, at(1, 0))
	tr.Set(Bit0, at(2, 0))

	a := tr.Begin()
	b := tr.Begin()
	assert.True(a.Equal(b))

	b.Next()
	assert.False(a.Equal(b))

	b.Next()
	assert.True(b.Equal(tr.End()), "walking off the last entry reaches end")
}

// TestCompareTracesEqual tests that comparison ignores structural layout:
// a trace holding redundant checkpoints equals its merged form.
func TestCompareTracesEqual(t *testing.T) {
	assert := assert.New(t)

	a := New[Bit](Bit0)
	a.SetWithMode(Bit1, at(1, 0), NoChange)
	a.SetWithMode(Bit1, at(2, 0), NoChange)
	a.SetWithMode(Bit1, at(3, 0), NoChange)

	b := New[Bit](Bit0)
	b.Set(Bit1, at(1, 0))

	assert.True(a.Equal(b))
	assert.True(b.Equal(a))
	assert.True(CompareTraces(a, b, nil))
}

// TestCompareTracesDifference tests that every divergence is reported with
// its time and both values.
func TestCompareTracesDifference(t *testing.T) {
	assert := assert.New(t)

	a := New[Bit](Bit0)
	a.Set(Bit1, at(2, 0))
	a.Set(Bit0, at(5, 0))

	b := New[Bit](Bit0)
	b.Set(Bit1, at(2, 0))
	b.Set(Bit1, at(5, 0))

	type diff struct {
		at   DeltaTime
		a, b Bit
	}
	var diffs []diff
	equal := CompareTraces(a, b, func(at DeltaTime, aVal, bVal Bit) {
		diffs = append(diffs, diff{at, aVal, bVal})
	})

	assert.False(equal)
	assert.Equal([]diff{{NewDeltaTime(5, 0), Bit0, Bit1}}, diffs)
	assert.False(a.Equal(b))
}

// TestCompareTracesTailValue tests that a trace that ran out of checkpoints
// keeps holding its last value against the longer trace's tail.
func TestCompareTracesTailValue(t *testing.T) {
	assert := assert.New(t)

	short := New[Bit](Bit0)
	short.Set(Bit1, at(2, 0))

	long := New[Bit](Bit0)
	long.Set(Bit1, at(2, 0))
	long.SetWithMode(Bit1, at(6, 0), NoChange)

	// The extra checkpoint repeats the held value, no difference.
	assert.True(short.Equal(long))

	long.Set(Bit0, at(9, 0))
	var count int
	equal := CompareTraces(short, long, func(at DeltaTime, aVal, bVal Bit) {
		count++
		assert.Equal(NewDeltaTime(9, 0), at)
		assert.Equal(Bit1, aVal)
		assert.Equal(Bit0, bVal)
	})
	assert.False(equal)
	assert.Equal(1, count)
}

// TestCompareTracesEmptyVsNonEmpty tests the one-sided walk when one trace
// has no checkpoints at all.
func TestCompareTracesEmptyVsNonEmpty(t *testing.T) {
	assert := assert.New(t)

	empty := New[Bit](Bit0)
	one := New[Bit](Bit0)
	one.Set(Bit1, at(5, 0))

	var diffs int
	assert.False(CompareTraces(empty, one, func(at DeltaTime, aVal, bVal Bit) {
		diffs++
		assert.Equal(NewDeltaTime(5, 0), at)
		assert.Equal(Bit0, aVal)
		assert.Equal(Bit1, bVal)
	}))
	assert.Equal(1, diffs)

	assert.True(New[Bit](Bit0).Equal(New[Bit](Bit0)))
}
