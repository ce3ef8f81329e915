package trace

import "github.com/cpp-ug-hb/review-trace/internal/timeintern"

// timeTable is the process-wide interning table backing DeltaTimeFW. It is
// synchronized, so traces owned by different goroutines may intern times
// concurrently.
var timeTable = timeintern.New[DeltaTime]()

// DeltaTimeFW is an interned (flyweight) handle to a DeltaTime. Equal times
// always resolve to the same handle, so comparing handles with == compares
// the underlying times and handles hash by identity when used as map keys.
// Obtain handles through Intern or InternTime; the zero handle is invalid.
type DeltaTimeFW struct {
	ref *DeltaTime
}

// Intern returns the canonical handle for t.
func Intern(t DeltaTime) DeltaTimeFW {
	return DeltaTimeFW{ref: timeTable.Intern(t)}
}

// InternTime is shorthand for Intern(NewDeltaTime(simcycle, deltacycle)).
func InternTime(simcycle, deltacycle uint64) DeltaTimeFW {
	return Intern(NewDeltaTime(simcycle, deltacycle))
}

// Get returns the time the handle stands for.
func (fw DeltaTimeFW) Get() DeltaTime { return *fw.ref }

// Less orders handles by their underlying time. Identical handles short-cut
// without touching the value.
func (fw DeltaTimeFW) Less(other DeltaTimeFW) bool {
	if fw.ref == other.ref {
		return false
	}
	return fw.Get().Less(other.Get())
}

// Compare returns -1, 0 or 1 ordering fw against other by time.
func (fw DeltaTimeFW) Compare(other DeltaTimeFW) int {
	if fw.ref == other.ref {
		return 0
	}
	return fw.Get().Compare(other.Get())
}

// String formats the underlying time.
func (fw DeltaTimeFW) String() string { return fw.Get().String() }
