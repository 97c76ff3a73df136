// Package fillexec walks a gap plan and populates the missing ranges of
// a destination file from the disc, in the order dictated by a fill
// strategy, applying a read-error strategy when the disc comes back
// short.
package fillexec

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"dvdgap/internal/blockio"
	"dvdgap/internal/gapplan"
)

// ErrShortRead is returned (wrapped) when Abort is the active strategy
// and the disc returned fewer blocks than requested, or none at all.
var ErrShortRead = errors.New("fillexec: short or failed disc read")

// segment is a single contiguous attempt window, at most
// blockio.MaxChunkBlocks long for the Random strategy's flattening step.
type segment struct {
	Start uint32
	Count uint32
}

// Execute walks plan per strategy.Kind and fills every gap from disc,
// returning the total number of blocks actually written. It never
// truncates dest (gap-fill mode never truncates); the orchestrator is
// responsible for any finalize/truncate step.
func Execute(dest *os.File, disc blockio.Reader, dvdOffset uint32, plan *gapplan.Plan, errStrategy ReadErrorStrategy, strategy FillStrategy) (uint32, error) {
	buf := blockio.GetBuffer()
	defer blockio.PutBuffer(buf)

	var written uint32

	switch strategy.Kind {
	case Forward:
		for _, r := range plan.Ranges() {
			w, err := runForward(dest, disc, dvdOffset, r, errStrategy, buf)
			written += w
			if err != nil {
				return written, err
			}
		}
	case Reverse:
		for _, r := range plan.Ranges() {
			w, err := runReverse(dest, disc, dvdOffset, r, errStrategy, buf)
			written += w
			if err != nil {
				return written, err
			}
		}
	case OutsideIn:
		for _, r := range plan.Ranges() {
			w, err := runOutsideIn(dest, disc, dvdOffset, r, errStrategy, buf)
			written += w
			if err != nil {
				return written, err
			}
		}
	case Random:
		segs := flattenToSegments(plan.Ranges())
		shuffleSegments(segs, newLCG(strategy.Seed))
		for _, seg := range segs {
			w, err := runForward(dest, disc, dvdOffset, gapplan.Range{Start: seg.Start, Count: seg.Count}, errStrategy, buf)
			written += w
			if err != nil {
				return written, err
			}
		}
	default:
		return 0, fmt.Errorf("fillexec: unknown fill strategy %v", strategy.Kind)
	}

	log.Info().Uint32("blocks_written", written).Stringer("strategy", strategy.Kind).Msg("fill executor finished")
	return written, nil
}

// flattenToSegments splits every range into front-aligned segments of at
// most blockio.MaxChunkBlocks blocks, for the Random strategy's shuffle.
func flattenToSegments(ranges []gapplan.Range) []segment {
	var segs []segment
	for _, r := range ranges {
		processed := uint32(0)
		for processed < r.Count {
			chunk := r.Count - processed
			if chunk > blockio.MaxChunkBlocks {
				chunk = blockio.MaxChunkBlocks
			}
			segs = append(segs, segment{Start: r.Start + processed, Count: chunk})
			processed += chunk
		}
	}
	return segs
}

// runForward walks r front to back, one <=512-block chunk at a time.
func runForward(dest *os.File, disc blockio.Reader, dvdOffset uint32, r gapplan.Range, errStrategy ReadErrorStrategy, buf []byte) (uint32, error) {
	var written uint32
	cursor := uint32(0)
	for cursor < r.Count {
		chunk := r.Count - cursor
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}
		readBlock := r.Start + cursor

		advance, w, err := attemptChunk(dest, disc, dvdOffset, readBlock, chunk, errStrategy, buf)
		written += w
		if err != nil {
			return written, err
		}
		cursor += advance
	}
	return written, nil
}

// runReverse walks r's range in the same outer range order as Forward,
// but within the range each chunk covers
// [range_end-processed-chunk, range_end-processed), i.e. tail toward
// head.
func runReverse(dest *os.File, disc blockio.Reader, dvdOffset uint32, r gapplan.Range, errStrategy ReadErrorStrategy, buf []byte) (uint32, error) {
	var written uint32
	processed := uint32(0)
	for processed < r.Count {
		chunk := r.Count - processed
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}
		readBlock := r.Start + r.Count - processed - chunk

		advance, w, err := attemptChunk(dest, disc, dvdOffset, readBlock, chunk, errStrategy, buf)
		written += w
		if err != nil {
			return written, err
		}
		processed += advance
	}
	return written, nil
}

// runOutsideIn alternates a front chunk and a back chunk within r, each
// up to 512 blocks, until the two cursors meet.
func runOutsideIn(dest *os.File, disc blockio.Reader, dvdOffset uint32, r gapplan.Range, errStrategy ReadErrorStrategy, buf []byte) (uint32, error) {
	var written uint32
	front := r.Start
	back := r.Start + r.Count
	fromFront := true

	for front < back {
		chunk := back - front
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}

		var readBlock uint32
		if fromFront {
			readBlock = front
		} else {
			readBlock = back - chunk
		}

		advance, w, err := attemptChunk(dest, disc, dvdOffset, readBlock, chunk, errStrategy, buf)
		written += w
		if err != nil {
			return written, err
		}

		if fromFront {
			front += advance
		} else {
			back -= advance
		}
		fromFront = !fromFront
	}
	return written, nil
}

// attemptChunk implements the common chunk contract shared by every
// fill strategy: it issues one read of up to chunk blocks at readBlock,
// writes whatever usable prefix came back, and applies errStrategy to
// the remainder of this chunk on a short or failed read. It returns how
// far the caller's cursor should advance and how many blocks were written.
func attemptChunk(dest *os.File, disc blockio.Reader, dvdOffset, readBlock, chunk uint32, errStrategy ReadErrorStrategy, buf []byte) (advance, written uint32, err error) {
	n, rerr := disc.ReadBlocks(dvdOffset+readBlock, chunk, buf[:chunk*blockio.BlockSize])
	usable := uint32(0)
	if rerr == nil && n > 0 {
		usable = uint32(n)
		if usable > chunk {
			usable = chunk
		}
	}

	if usable == chunk {
		if werr := blockio.WriteFullAt(dest, buf[:chunk*blockio.BlockSize], int64(readBlock)*blockio.BlockSize); werr != nil {
			return 0, 0, fmt.Errorf("fillexec: short write at block %d: %w", readBlock, werr)
		}
		return chunk, chunk, nil
	}

	if usable > 0 {
		if werr := blockio.WriteFullAt(dest, buf[:usable*blockio.BlockSize], int64(readBlock)*blockio.BlockSize); werr != nil {
			return 0, 0, fmt.Errorf("fillexec: short write at block %d: %w", readBlock, werr)
		}
		written = usable
	}

	log.Debug().Uint32("block", readBlock+usable).Uint32("requested", chunk).Uint32("got", usable).
		Stringer("strategy", errStrategy).Msg("short or failed disc read")

	switch errStrategy {
	case Abort:
		if rerr != nil {
			return 0, written, fmt.Errorf("fillexec: read error at block %d: %w", readBlock+usable, rerr)
		}
		return 0, written, fmt.Errorf("%w at block %d", ErrShortRead, readBlock+usable)
	case SkipBlock:
		advance = usable + 1
	case SkipMultiblock:
		advance = chunk
		if advance < 1 {
			advance = 1
		}
	default:
		return 0, written, fmt.Errorf("fillexec: unknown read-error strategy %v", errStrategy)
	}
	return advance, written, nil
}

// FillSequentialWithPadding performs an initial, from-scratch copy: it
// reads the disc sequentially, writing zero-filled padding in place of
// any blocks the read-error strategy causes it to skip, and truncates
// dest to totalBlocks*BlockSize on success. Unlike Execute, it bypasses
// the gap scanner/sampler/plan entirely.
func FillSequentialWithPadding(dest *os.File, disc blockio.Reader, dvdOffset, totalBlocks uint32, errStrategy ReadErrorStrategy) (uint32, error) {
	buf := blockio.GetBuffer()
	defer blockio.PutBuffer(buf)

	var written uint32
	cursor := uint32(0)
	for cursor < totalBlocks {
		chunk := totalBlocks - cursor
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}
		readBlock := cursor

		n, rerr := disc.ReadBlocks(dvdOffset+readBlock, chunk, buf[:chunk*blockio.BlockSize])
		usable := uint32(0)
		if rerr == nil && n > 0 {
			usable = uint32(n)
			if usable > chunk {
				usable = chunk
			}
		}

		if usable > 0 {
			if werr := blockio.WriteFullAt(dest, buf[:usable*blockio.BlockSize], int64(readBlock)*blockio.BlockSize); werr != nil {
				return written, fmt.Errorf("fillexec: short write at block %d: %w", readBlock, werr)
			}
			written += usable
		}

		if usable == chunk {
			cursor += chunk
			continue
		}

		var advance uint32
		switch errStrategy {
		case Abort:
			if rerr != nil {
				return written, fmt.Errorf("fillexec: read error at block %d: %w", readBlock+usable, rerr)
			}
			return written, fmt.Errorf("%w at block %d", ErrShortRead, readBlock+usable)
		case SkipBlock:
			advance = usable + 1
		case SkipMultiblock:
			advance = chunk
		}

		// Zero-pad the skipped region: the initial-copy path is the
		// source of later "--gaps" work, so the bytes it can't read
		// must read back as blank, not garbage from a stale buffer.
		padBlocks := advance - usable
		if padBlocks > 0 {
			pad := make([]byte, padBlocks*blockio.BlockSize)
			if werr := blockio.WriteFullAt(dest, pad, int64(readBlock+usable)*blockio.BlockSize); werr != nil {
				return written, fmt.Errorf("fillexec: short write (padding) at block %d: %w", readBlock+usable, werr)
			}
		}

		cursor += advance
	}

	if err := dest.Truncate(int64(totalBlocks) * blockio.BlockSize); err != nil {
		return written, fmt.Errorf("fillexec: truncate: %w", err)
	}

	log.Info().Uint32("blocks_written", written).Msg("initial copy finished")
	return written, nil
}
