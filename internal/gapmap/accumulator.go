// Package gapmap accumulates, across a whole rip run, the global sector
// ranges found blank or missing, and renders them as a 2-D ASCII grid.
package gapmap

import "dvdgap/internal/gapplan"

// Entry is one recorded gap, in global (whole-rip) sector coordinates.
type Entry struct {
	GlobalStart uint32
	Count       uint32
}

// Accumulator is append-only and single-threaded, scoped to one rip run.
// Its origin resets at the start of a run and advances by each file's
// expected block count.
type Accumulator struct {
	entries     []Entry
	totalBlocks uint32
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AddFile records a file's gap plan and truncated tail at the
// accumulator's current global base, then advances the base by
// expectedBlocks. The base used for this call is returned, so callers
// that need to report per-file global offsets don't have to recompute
// it.
func (a *Accumulator) AddFile(plan *gapplan.Plan, existingBlocks, expectedBlocks uint32) uint32 {
	base := a.totalBlocks

	for _, r := range plan.Ranges() {
		a.entries = append(a.entries, Entry{GlobalStart: base + r.Start, Count: r.Count})
	}

	if expectedBlocks > existingBlocks {
		a.entries = append(a.entries, Entry{
			GlobalStart: base + existingBlocks,
			Count:       expectedBlocks - existingBlocks,
		})
	}

	a.totalBlocks += expectedBlocks
	return base
}

// Entries returns every recorded gap entry in global coordinates.
func (a *Accumulator) Entries() []Entry {
	return a.entries
}

// TotalBlocks returns the running total of expected blocks across every
// file added so far.
func (a *Accumulator) TotalBlocks() uint32 {
	return a.totalBlocks
}
