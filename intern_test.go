package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInternIdentity tests that handles are equal exactly when their
// underlying times are equal, so == on handles is value comparison.
func TestInternIdentity(t *testing.T) {
	assert := assert.New(t)

	a := Intern(NewDeltaTime(5, 3))
	b := InternTime(5, 3)
	c := InternTime(5, 4)

	assert.True(a == b)
	assert.False(a == c)
	assert.Equal(NewDeltaTime(5, 3), a.Get())
	assert.Equal(NewDeltaTime(5, 4), c.Get())
}

// TestInternOrdering tests that handle ordering follows the underlying
// time ordering.
func TestInternOrdering(t *testing.T) {
	assert := assert.New(t)

	early := InternTime(2, 255)
	late := InternTime(3, 0)

	assert.True(early.Less(late))
	assert.False(late.Less(early))
	assert.False(early.Less(early))
	assert.Equal(-1, early.Compare(late))
	assert.Equal(1, late.Compare(early))
	assert.Equal(0, early.Compare(InternTime(2, 255)))
}

// TestInternString tests that a handle formats like its underlying time.
func TestInternString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("5+3", InternTime(5, 3).String())
	assert.Equal("7$", Intern(EndOfCycle(7)).String())
}

// TestInternMapKey tests handles as map keys: equal times collide, distinct
// times do not.
func TestInternMapKey(t *testing.T) {
	assert := assert.New(t)

	seen := map[DeltaTimeFW]int{}
	seen[InternTime(1, 0)]++
	seen[Intern(NewDeltaTime(1, 0))]++
	seen[InternTime(1, 1)]++

	assert.Len(seen, 2)
	assert.Equal(2, seen[InternTime(1, 0)])
	assert.Equal(1, seen[InternTime(1, 1)])
}
