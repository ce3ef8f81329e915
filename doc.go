// Package trace implements a time-indexed signal trace store: an ordered
// sequence of value-change checkpoints for a single digital signal whose
// value varies with a two-level (simulation cycle, delta cycle) time.
//
// Checkpoints are kept in fixed-capacity frames of up to 32 time-sorted
// entries. Lookups and writes locate their position with a two-level binary
// search (across frames by leader time, then within the target frame), so
// random access stays logarithmic while the dominant append workload hits a
// constant-time fast path. Times are interned process-wide: equal DeltaTime
// values share a single canonical handle (DeltaTimeFW), making time
// comparison and hashing inside the store an identity operation.
//
// A Trace is single-threaded: no operation locks, and a trace must be read
// and written from at most one goroutine at a time. The only shared state is
// the interning table behind DeltaTimeFW, which is synchronized so traces may
// be created and driven from different goroutines as long as each individual
// trace stays confined to one of them.
package trace
