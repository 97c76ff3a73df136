// Package gapplan holds the ordered, coalesced set of block ranges a
// gap-fill pass needs to attempt.
package gapplan

import "fmt"

// Range is a half-open block range [Start, Start+Count).
type Range struct {
	Start uint32
	Count uint32
}

// End returns Start + Count.
func (r Range) End() uint32 {
	return r.Start + r.Count
}

// Plan is an ordered, disjoint, non-adjacent sequence of block ranges.
// Callers must add ranges in ascending Start order; Add enforces the
// coalescing invariant but does not sort out-of-order input.
type Plan struct {
	ranges []Range
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{}
}

// Add inserts [start, start+count) into the plan. A count of 0 is a
// no-op. If the new range starts at or before the end of the last
// range currently in the plan, it is merged into it (extending Count if
// needed) rather than appended, keeping the plan's ranges disjoint and
// non-adjacent.
//
// Add panics if start is less than the start of the last range already
// in the plan, even when the new range would overlap it — callers are
// required to add in ascending start order, per the plan's contract.
func (p *Plan) Add(start, count uint32) {
	if count == 0 {
		return
	}
	if len(p.ranges) == 0 {
		p.ranges = append(p.ranges, Range{Start: start, Count: count})
		return
	}

	last := &p.ranges[len(p.ranges)-1]
	if start < last.Start {
		panic(fmt.Sprintf("gapplan: Add called out of order: start=%d before last range start=%d", start, last.Start))
	}

	newEnd := start + count
	if start <= last.End() {
		if newEnd > last.End() {
			last.Count = newEnd - last.Start
		}
		return
	}

	p.ranges = append(p.ranges, Range{Start: start, Count: count})
}

// Ranges returns the plan's ranges in ascending order. The returned
// slice must not be mutated by the caller.
func (p *Plan) Ranges() []Range {
	return p.ranges
}

// Len returns the number of disjoint ranges in the plan.
func (p *Plan) Len() int {
	return len(p.ranges)
}

// Empty reports whether the plan has no ranges at all.
func (p *Plan) Empty() bool {
	return len(p.ranges) == 0
}

// TotalBlocks returns the sum of every range's Count.
func (p *Plan) TotalBlocks() uint32 {
	var total uint32
	for _, r := range p.ranges {
		total += r.Count
	}
	return total
}

// Contains reports whether block lies within any range of the plan. It
// exploits the plan's sort order and returns false as soon as block is
// less than a range's start.
func (p *Plan) Contains(block uint32) bool {
	for _, r := range p.ranges {
		if block < r.Start {
			return false
		}
		if block < r.End() {
			return true
		}
	}
	return false
}

// Free releases the plan's backing storage; in Go this just drops the
// slice so the backing array can be collected.
func (p *Plan) Free() {
	p.ranges = nil
}
