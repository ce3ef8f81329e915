package trace

import "slices"

// cursor addresses one entry of a trace as a (frame index, position) pair.
// It is the sole navigation primitive: every trace algorithm is a sequence
// of cursor moves plus frame-local edits. Three states exist:
//
//   - valid:        frame in range and pos inside the frame's used region
//   - end-of-frame: frame in range and pos == used; a legal insertion
//     target but not dereferenceable
//   - end-of-trace: anything else
//
// Cursors are invalidated by any mutating trace operation.
type cursor struct {
	frame int
	pos   int
}

// endCursor is the canonical end-of-trace cursor used by iterators.
var endCursor = cursor{frame: -1, pos: -1}

// cursorValid reports whether c addresses a live entry.
func (t *Trace[V]) cursorValid(c cursor) bool {
	return c.frame >= 0 && c.frame < len(t.frames) &&
		c.pos >= 0 && c.pos < t.frames[c.frame].used
}

// isEndOfFrame reports whether c sits one past the last entry of a frame.
func (t *Trace[V]) isEndOfFrame(c cursor) bool {
	return c.frame >= 0 && c.frame < len(t.frames) &&
		c.pos == t.frames[c.frame].used
}

// moveForward steps c to the next entry, crossing the frame boundary
// directly without pausing on the end-of-frame position. The cursor must be
// valid.
func (t *Trace[V]) moveForward(c *cursor) {
	if c.pos < t.frames[c.frame].used-1 {
		c.pos++
	} else {
		c.pos = 0
		c.frame++
	}
}

// moveBackward steps c to the previous entry. Stepping before the first
// entry leaves the cursor at end-of-trace.
func (t *Trace[V]) moveBackward(c *cursor) {
	if c.pos > 0 {
		c.pos--
		return
	}
	if c.frame > 0 {
		c.pos = t.frames[c.frame-1].used - 1
	} else {
		c.pos = TraceFrameSize
	}
	c.frame--
}

func (t *Trace[V]) timeAt(c cursor) DeltaTimeFW { return t.frames[c.frame].times[c.pos] }

func (t *Trace[V]) valueAt(c cursor) V { return t.frames[c.frame].values[c.pos] }

func (t *Trace[V]) setTimeAt(c cursor, tm DeltaTimeFW) { t.frames[c.frame].times[c.pos] = tm }

func (t *Trace[V]) setValueAt(c cursor, value V) { t.frames[c.frame].values[c.pos] = value }

// searchTime positions a cursor on the entry holding tm, or on the point
// where it would have to be inserted: the leftmost position whose time is at
// least tm, possibly end-of-frame or end-of-trace. Appends hit the closing
// fast path before any binary search runs; note the strict compare, so a
// write to the exact last time takes the slow path.
func (t *Trace[V]) searchTime(tm DeltaTimeFW) cursor {
	if n := len(t.frames); n > 0 {
		if back := t.frames[n-1]; back.Closer().Less(tm) {
			return cursor{frame: n - 1, pos: back.used}
		}
	}

	// Find the first frame whose leader is after tm; its predecessor is the
	// only frame that can hold tm.
	frame, _ := slices.BinarySearchFunc(t.frames, tm,
		func(f *TraceFrame[V], target DeltaTimeFW) int {
			if !target.Less(f.Leader()) {
				return -1
			}
			return 1
		})
	if frame > 0 {
		frame--
	}

	f := t.frames[frame]
	pos, _ := slices.BinarySearchFunc(f.times[:f.used], tm, DeltaTimeFW.Compare)

	if pos == f.used && f.Full() {
		return cursor{frame: frame + 1, pos: 0}
	}
	return cursor{frame: frame, pos: pos}
}

// insertAt places (tm, value) at the cursor position, which must be the
// insertion point computed by searchTime. A full frame is handled by
// splitting it at tm, or by splicing a fresh singleton frame next to it when
// the split point falls on the frame edge. An end-of-trace cursor appends a
// new frame.
func (t *Trace[V]) insertAt(c cursor, tm DeltaTimeFW, value V) {
	if c.frame >= len(t.frames) {
		t.frames = append(t.frames, newTraceFrameWith(tm, value))
		return
	}

	f := t.frames[c.frame]
	switch {
	case !f.Full():
		f.Insert(c.pos, tm, value)
	case c.pos == 0:
		t.frames = slices.Insert(t.frames, c.frame, newTraceFrameWith(tm, value))
	default:
		next := f.Split(tm)
		if next == nil {
			// tm lies outside the frame's covered range.
			next = newTraceFrameWith(tm, value)
			if tm.Less(f.Leader()) {
				t.frames = slices.Insert(t.frames, c.frame, next)
			} else {
				t.frames = slices.Insert(t.frames, c.frame+1, next)
			}
		} else {
			f.Set(tm, value)
			t.frames = slices.Insert(t.frames, c.frame+1, next)
		}
	}
}

// eraseAt removes the entry under the cursor. A frame emptied by the erase
// is dropped, unless it is the sole remaining frame, which is reset instead
// so the trace always keeps one frame.
func (t *Trace[V]) eraseAt(c cursor) {
	if !t.cursorValid(c) {
		panic("trace: eraseAt on an invalid cursor")
	}

	f := t.frames[c.frame]
	if f.used == 1 {
		if len(t.frames) == 1 {
			f.Reset(Intern(DeltaTime{}))
		} else {
			t.frames = slices.Delete(t.frames, c.frame, c.frame+1)
		}
		return
	}
	f.Erase(c.pos)
}

// truncateFrames drops every entry at and after the cursor position,
// including all later frames.
func (t *Trace[V]) truncateFrames(c cursor) {
	if !t.cursorValid(c) {
		panic("trace: truncateFrames on an invalid cursor")
	}

	t.frames = slices.Delete(t.frames, c.frame+1, len(t.frames))

	last := t.frames[c.frame]
	last.Truncate(c.pos)
	if last.Empty() {
		if len(t.frames) != 1 {
			t.frames = slices.Delete(t.frames, c.frame, c.frame+1)
		} else {
			last.Reset(Intern(DeltaTime{}))
		}
	}
}

// appendVal appends (tm, value) behind the current last entry. tm must be
// greater than every stored time.
func (t *Trace[V]) appendVal(value V, tm DeltaTimeFW) {
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].Full() {
		t.frames = append(t.frames, newTraceFrameWith(tm, value))
		return
	}
	t.frames[len(t.frames)-1].Set(tm, value)
}
