// Package verify confirms that pre-existing non-gap sectors in a
// destination file still match the disc before the fill executor is
// allowed to write anything.
package verify

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"dvdgap/internal/blockio"
	"dvdgap/internal/gapplan"
)

// DefaultSampleCount is the default target verification sample size N.
const DefaultSampleCount = 32

// MismatchError reports a sample sector that disagreed between the
// destination and the disc.
type MismatchError struct {
	Block uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification sample mismatch at sector %d", e.Block)
}

// SelectSamples proposes up to desired strictly increasing block indices
// in [0, expectedBlocks) that lie outside plan: for i in [0, T), propose
// floor((i+1)*expectedBlocks/(T+1)); walk forward to
// the first out-of-plan block, then backward if forward search fails,
// then skip the candidate entirely if both fail. Adjacent duplicates
// (equal to the immediately preceding accepted sample) are dropped.
func SelectSamples(plan *gapplan.Plan, expectedBlocks uint32, desired int) []uint32 {
	if expectedBlocks == 0 || desired <= 0 {
		return nil
	}
	t := desired
	if int(expectedBlocks) < t {
		t = int(expectedBlocks)
	}

	var samples []uint32
	for i := 0; i < t; i++ {
		candidate := uint32((uint64(i+1) * uint64(expectedBlocks)) / uint64(t+1))

		block, ok := findOutsidePlan(plan, candidate, expectedBlocks)
		if !ok {
			continue
		}
		if len(samples) > 0 && samples[len(samples)-1] == block {
			continue
		}
		samples = append(samples, block)
	}
	return samples
}

func findOutsidePlan(plan *gapplan.Plan, candidate, expectedBlocks uint32) (uint32, bool) {
	for b := candidate; b < expectedBlocks; b++ {
		if !plan.Contains(b) {
			return b, true
		}
	}
	for b := int64(candidate) - 1; b >= 0; b-- {
		if !plan.Contains(uint32(b)) {
			return uint32(b), true
		}
	}
	return 0, false
}

// Verify reads each sample block from disc at dvdOffset+block and from
// dest at byte offset block*BlockSize, comparing them byte-exactly. It
// fails -- and stops -- at the first mismatch, returning a *MismatchError
// naming the offending sector. No bytes are written by Verify; it is
// purely read-only, so the "no data written prior to successful
// verification" invariant holds trivially.
func Verify(dest *os.File, disc blockio.Reader, dvdOffset uint32, samples []uint32) error {
	var discBlock, destBlock blockio.Block

	for _, b := range samples {
		n, err := disc.ReadBlocks(dvdOffset+b, 1, discBlock[:])
		if err != nil {
			return fmt.Errorf("verify: reading disc sector %d: %w", b, err)
		}
		if n != 1 {
			return fmt.Errorf("verify: short read from disc at sector %d", b)
		}

		if _, err := blockio.ReadFullAt(dest, destBlock[:], int64(b)*blockio.BlockSize); err != nil {
			return fmt.Errorf("verify: reading destination sector %d: %w", b, err)
		}

		if discBlock != destBlock {
			log.Error().Uint32("block", b).Msg("verification sample mismatch")
			return &MismatchError{Block: b}
		}
	}

	log.Debug().Int("samples", len(samples)).Msg("verification samples matched")
	return nil
}
