package fillexec

// ReadErrorStrategy selects how the fill executor reacts when a disc
// read comes back short or fails outright.
type ReadErrorStrategy int

const (
	// Abort fails the whole fill operation on the first short/failed
	// read.
	Abort ReadErrorStrategy = iota
	// SkipBlock advances past exactly one block and retries the chunk
	// from the next position.
	SkipBlock
	// SkipMultiblock advances past the remainder of the attempted chunk.
	SkipMultiblock
)

func (s ReadErrorStrategy) String() string {
	switch s {
	case Abort:
		return "abort"
	case SkipBlock:
		return "skip"
	case SkipMultiblock:
		return "skip-multiblock"
	default:
		return "unknown"
	}
}

// FillStrategyKind selects the order in which the executor walks a gap
// plan's ranges and the chunks within them.
type FillStrategyKind int

const (
	Forward FillStrategyKind = iota
	Reverse
	OutsideIn
	Random
)

func (k FillStrategyKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case OutsideIn:
		return "outside-in"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// FillStrategy pairs a strategy kind with the seed Random needs.
type FillStrategy struct {
	Kind FillStrategyKind
	Seed uint32
}

// lcg is an explicit, fixed linear congruential generator the Random
// fill strategy uses: reproducibility across implementations requires
// an exact generator rather than inheriting whatever math/rand happens
// to do release to release. The recurrence
// is the Numerical-Recipes-style next = state*1103515245 + 12345, and
// each draw takes bits 16..30 of the resulting state.
type lcg struct {
	state uint32
}

func newLCG(seed uint32) *lcg {
	return &lcg{state: seed}
}

// next returns the next pseudo-random value in [0, 1<<15).
func (g *lcg) next() uint32 {
	g.state = g.state*1103515245 + 12345
	return (g.state >> 16) & 0x7FFF
}

// shuffleSegments performs a deterministic Fisher-Yates shuffle of segs using g,
// draws taken via g.next() mod the remaining prefix length.
func shuffleSegments(segs []segment, g *lcg) {
	for i := len(segs) - 1; i > 0; i-- {
		j := int(g.next() % uint32(i+1))
		segs[i], segs[j] = segs[j], segs[i]
	}
}
