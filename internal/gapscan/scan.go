// Package gapscan finds zero-filled and missing block runs in a
// destination file.
package gapscan

import (
	"os"

	"github.com/rs/zerolog/log"

	"dvdgap/internal/blockio"
	"dvdgap/internal/gapplan"
)

// Result is the outcome of scanning a destination file.
type Result struct {
	// Plan holds the zero-filled runs found within [0, ScanBlocks). The
	// truncated tail, if any, is NOT included here: the caller appends
	// it explicitly (see Scan's doc comment).
	Plan *gapplan.Plan
	// BlankBlocks is Plan's total block count restricted to
	// [0, ScanBlocks) -- which, since the scanner only ever emits runs
	// inside that range, is simply Plan.TotalBlocks().
	BlankBlocks uint32
	// FullBlocks is floor(ExistingBytes / BlockSize): the number of
	// complete blocks physically present in the file.
	FullBlocks uint32
	// ExistingBytes is the file's length in bytes at scan time.
	ExistingBytes int64
	// ScanBlocks is min(FullBlocks, expectedBlocks): how many blocks were
	// actually read and classified.
	ScanBlocks uint32
}

// Scan reads f in chunks of up to blockio.MaxChunkBlocks blocks and
// returns a gapplan.Plan of the zero-filled runs found among the first
// min(full_blocks, expectedBlocks) blocks.
//
// The truncated-tail range [full_blocks, expectedBlocks) -- the part of
// the file that doesn't exist yet -- is deliberately not part of the
// returned plan; appending it is the caller's job (§9's explicit
// scanner/truncated-tail decoupling), typically via:
//
//	res, _ := gapscan.Scan(f, expectedBlocks)
//	res.Plan.Add(res.FullBlocks, expectedBlocks-res.FullBlocks)
//
// Known limitation (carried from the source this was distilled from,
// not fixed here): a trailing partial block -- fewer than BlockSize
// bytes at EOF -- is treated as fully absent, even if the bytes it does
// have are valid. FullBlocks floors the byte count, so that partial
// block falls into the truncated tail once the caller appends it.
func Scan(f *os.File, expectedBlocks uint32) (Result, error) {
	fi, err := f.Stat()
	if err != nil {
		return Result{}, err
	}
	existingBytes := fi.Size()
	fullBlocks := uint32(existingBytes / blockio.BlockSize)

	scanBlocks := fullBlocks
	if expectedBlocks < scanBlocks {
		scanBlocks = expectedBlocks
	}

	plan := gapplan.New()
	var pendingStart uint32
	havePending := false

	buf := blockio.GetBuffer()
	defer blockio.PutBuffer(buf)

	var cur uint32
	for cur < scanBlocks {
		chunk := scanBlocks - cur
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}

		n, err := blockio.ReadFullAt(f, buf[:int(chunk)*blockio.BlockSize], int64(cur)*blockio.BlockSize)
		if err != nil {
			log.Error().Err(err).Uint32("block", cur).Msg("gapscan: read failed, discarding partial plan")
			plan.Free()
			return Result{}, err
		}
		blocksRead := uint32(n) / blockio.BlockSize

		for i := uint32(0); i < blocksRead; i++ {
			block := cur + i
			var b blockio.Block
			copy(b[:], buf[i*blockio.BlockSize:(i+1)*blockio.BlockSize])

			if b.IsBlank() {
				if !havePending {
					pendingStart = block
					havePending = true
				}
			} else if havePending {
				plan.Add(pendingStart, block-pendingStart)
				havePending = false
			}
		}

		cur += blocksRead
		if blocksRead < chunk {
			// Short read from the destination itself; nothing more to
			// classify past this point within scanBlocks.
			break
		}
	}

	if havePending {
		plan.Add(pendingStart, scanBlocks-pendingStart)
	}

	return Result{
		Plan:          plan,
		BlankBlocks:   plan.TotalBlocks(),
		FullBlocks:    fullBlocks,
		ExistingBytes: existingBytes,
		ScanBlocks:    scanBlocks,
	}, nil
}
