package stream

import "strings"

// Accumulator concatenates deltas in arrival order. It belongs to a single
// execution and is not safe for concurrent use.
type Accumulator struct {
	buf    strings.Builder
	deltas int
	final  bool
}

// NewAccumulator returns an empty, partial Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds delta to the buffer. Appends after Finalize are ignored.
func (a *Accumulator) Append(delta string) {
	if a.final || delta == "" {
		return
	}
	a.buf.WriteString(delta)
	a.deltas++
}

// String returns the text accumulated so far.
func (a *Accumulator) String() string {
	return a.buf.String()
}

// Len returns the accumulated length in bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

// Deltas returns how many non-empty deltas were appended.
func (a *Accumulator) Deltas() int {
	return a.deltas
}

// Finalize marks the buffer complete and returns its text.
func (a *Accumulator) Finalize() string {
	a.final = true
	return a.buf.String()
}

// Final reports whether Finalize has been called.
func (a *Accumulator) Final() bool {
	return a.final
}
