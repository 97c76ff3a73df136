// Package rip implements the copy orchestrator: per output file, it
// drives the gap scanner, verification sampler and fill executor, and
// reports the result. It also owns the disc manifest and the explicit
// run configuration that replaces the source's global mutable flags.
package rip

import (
	"dvdgap/internal/fillexec"
	"dvdgap/internal/verify"
)

// Config holds every knob the orchestrator needs, replacing the global
// mutable flags (fill_gaps, gap_strategy, gap_map, progress) the source
// this was distilled from used: one explicit value threaded through the
// orchestrator instead of process-wide state.
type Config struct {
	// GapFill enables scan -> verify -> fill mode (--gaps). When false,
	// the orchestrator uses the sequential initial-copy path.
	GapFill bool
	// NoOverwrite refuses to truncate existing files in non-gap-fill
	// mode (--no-overwrite).
	NoOverwrite bool
	// FillStrategy selects the fill executor's read order.
	FillStrategy fillexec.FillStrategy
	// ErrorStrategy selects short/failed-read handling.
	ErrorStrategy fillexec.ReadErrorStrategy
	// CompareOnly runs verification against the disc without writing
	// anything (--compare).
	CompareOnly bool
	// GapMap accumulates and renders the rip-wide ASCII gap map
	// (--gap-map).
	GapMap bool
	// SampleCount is the target verification sample size N.
	SampleCount int
}

// DefaultConfig returns the conservative defaults: forward fill order,
// abort on read error, gap-fill disabled, 32 verification samples.
func DefaultConfig() Config {
	return Config{
		FillStrategy:  fillexec.FillStrategy{Kind: fillexec.Forward},
		ErrorStrategy: fillexec.Abort,
		SampleCount:   verify.DefaultSampleCount,
	}
}
