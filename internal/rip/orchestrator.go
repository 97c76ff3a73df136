package rip

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"dvdgap/internal/blockio"
	"dvdgap/internal/fillexec"
	"dvdgap/internal/gapmap"
	"dvdgap/internal/gapplan"
	"dvdgap/internal/gapscan"
	"dvdgap/internal/verify"
)

// FileReport is the per-file outcome the orchestrator emits after
// processing one output file.
type FileReport struct {
	File OutputFile

	FilledBlocks uint32

	BlankBefore      uint32
	BlankAfter       uint32
	TruncatedBefore  uint32
	TruncatedAfter   uint32
	ExpectedBlocks   uint32

	Err error

	// finalPlan/existingBlocks are the last known blank-range plan
	// (excluding the truncated tail) and the physically-present block
	// count, used to feed the rip-wide gap-map accumulator. finalPlan
	// is nil when no plan was ever computed, e.g. a gap-fill run that
	// failed before its after-scan.
	finalPlan      *gapplan.Plan
	existingBlocks uint32
}

// BlankPercent/TruncatedPercent report the before/after fractions
// relative to ExpectedBlocks.
func (r FileReport) BlankPercentBefore() float64      { return pct(r.BlankBefore, r.ExpectedBlocks) }
func (r FileReport) BlankPercentAfter() float64       { return pct(r.BlankAfter, r.ExpectedBlocks) }
func (r FileReport) TruncatedPercentBefore() float64  { return pct(r.TruncatedBefore, r.ExpectedBlocks) }
func (r FileReport) TruncatedPercentAfter() float64   { return pct(r.TruncatedAfter, r.ExpectedBlocks) }

func pct(n, total uint32) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// Orchestrator drives the gap scanner, verification sampler and fill
// executor for every file of a disc manifest, and (optionally)
// accumulates a rip-wide gap map.
type Orchestrator struct {
	cfg Config
	acc *gapmap.Accumulator
}

// NewOrchestrator returns an Orchestrator configured per cfg. A gap-map
// accumulator is created here only when cfg.GapMap is set.
func NewOrchestrator(cfg Config) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	if cfg.GapMap {
		o.acc = gapmap.New()
	}
	return o
}

// Run processes every file in disc, in manifest order (IFO/BUP -> menu
// -> titled VOB parts), and returns one report per file. A file-level
// failure does not abort the run; it is recorded in that file's report
// and the orchestrator moves on.
func (o *Orchestrator) Run(disc *Disc) []FileReport {
	reports := make([]FileReport, 0, len(disc.Files))
	for _, f := range disc.Files {
		var rep FileReport
		if o.cfg.CompareOnly {
			rep = o.compareFile(disc.Reader, f)
		} else if o.cfg.GapFill {
			rep = o.gapFillFile(disc.Reader, f)
		} else {
			rep = o.initialCopyFile(disc.Reader, f)
		}
		if o.acc != nil {
			plan := rep.finalPlan
			if plan == nil {
				plan = gapplan.New()
			}
			o.acc.AddFile(plan, rep.existingBlocks, rep.ExpectedBlocks)
		}
		reports = append(reports, rep)
	}
	return reports
}

// GapMapReport renders the accumulated rip-wide gap map. It returns ""
// if gap-map accumulation was not enabled.
func (o *Orchestrator) GapMapReport() string {
	if o.acc == nil {
		return ""
	}
	return gapmap.Render(o.acc.Entries(), o.acc.TotalBlocks())
}

// gapFillFile scans an existing destination for blank/missing ranges,
// verifies the surviving data against the disc, and fills the gaps.
func (o *Orchestrator) gapFillFile(reader blockio.Reader, f OutputFile) FileReport {
	rep := FileReport{File: f, ExpectedBlocks: f.ExpectedBlocks}

	dest, err := blockio.OpenDestination(f.Path)
	if err != nil {
		rep.Err = fmt.Errorf("open %s: %w", f.Path, err)
		return rep
	}
	defer dest.Close()

	before, err := gapscan.Scan(dest, f.ExpectedBlocks)
	if err != nil {
		rep.Err = fmt.Errorf("scan %s: %w", f.Path, err)
		return rep
	}

	truncatedBefore := uint32(0)
	if f.ExpectedBlocks > before.FullBlocks {
		truncatedBefore = f.ExpectedBlocks - before.FullBlocks
	}
	rep.BlankBefore = before.Plan.TotalBlocks() + truncatedBefore
	rep.TruncatedBefore = truncatedBefore

	fillPlan := before.Plan
	if truncatedBefore > 0 {
		fillPlan.Add(before.FullBlocks, truncatedBefore)
	}

	nonGapBlocks := f.ExpectedBlocks - fillPlan.TotalBlocks()
	if !fillPlan.Empty() && nonGapBlocks > 0 {
		samples := verify.SelectSamples(fillPlan, f.ExpectedBlocks, o.cfg.SampleCount)
		if len(samples) > 0 {
			if err := verify.Verify(dest, reader, f.DVDOffset, samples); err != nil {
				rep.Err = err
				return rep
			}
		}
	}

	written, err := fillexec.Execute(dest, reader, f.DVDOffset, fillPlan, o.cfg.ErrorStrategy, o.cfg.FillStrategy)
	rep.FilledBlocks = written
	if err != nil {
		rep.Err = fmt.Errorf("fill %s: %w", f.Path, err)
		return rep
	}

	after, err := gapscan.Scan(dest, f.ExpectedBlocks)
	if err == nil {
		truncatedAfter := uint32(0)
		if f.ExpectedBlocks > after.FullBlocks {
			truncatedAfter = f.ExpectedBlocks - after.FullBlocks
		}
		rep.BlankAfter = after.Plan.TotalBlocks() + truncatedAfter
		rep.TruncatedAfter = truncatedAfter
		rep.finalPlan = after.Plan
		rep.existingBlocks = after.FullBlocks
	} else {
		log.Error().Err(err).Str("file", f.Path).Msg("best-effort after-scan failed")
		rep.finalPlan = gapplan.New()
		rep.existingBlocks = f.ExpectedBlocks
	}

	log.Info().Str("file", f.Path).Uint32("filled", rep.FilledBlocks).
		Uint32("blank_before", rep.BlankBefore).Uint32("blank_after", rep.BlankAfter).
		Uint32("truncated_before", rep.TruncatedBefore).Uint32("truncated_after", rep.TruncatedAfter).
		Msg("gap-fill pass complete")

	return rep
}

// initialCopyFile performs a straight sequential copy with zero-padding,
// bypassing the scanner/sampler entirely.
func (o *Orchestrator) initialCopyFile(reader blockio.Reader, f OutputFile) FileReport {
	rep := FileReport{File: f, ExpectedBlocks: f.ExpectedBlocks}

	if o.cfg.NoOverwrite {
		if fi, err := os.Stat(f.Path); err == nil && fi.Size() > 0 {
			rep.Err = fmt.Errorf("refusing to overwrite existing file %s (--no-overwrite)", f.Path)
			return rep
		}
	}

	dest, err := blockio.OpenDestination(f.Path)
	if err != nil {
		rep.Err = fmt.Errorf("open %s: %w", f.Path, err)
		return rep
	}
	defer dest.Close()

	written, err := fillexec.FillSequentialWithPadding(dest, reader, f.DVDOffset, f.ExpectedBlocks, o.cfg.ErrorStrategy)
	rep.FilledBlocks = written
	rep.existingBlocks = f.ExpectedBlocks
	rep.finalPlan = gapplan.New()
	if err != nil {
		rep.Err = fmt.Errorf("copy %s: %w", f.Path, err)
		return rep
	}

	log.Info().Str("file", f.Path).Uint32("filled", rep.FilledBlocks).Msg("initial copy complete")
	return rep
}

// compareFile implements the --compare path: read-only, exhaustive
// block-by-block comparison against the disc, no writes.
func (o *Orchestrator) compareFile(reader blockio.Reader, f OutputFile) FileReport {
	rep := FileReport{File: f, ExpectedBlocks: f.ExpectedBlocks, existingBlocks: f.ExpectedBlocks, finalPlan: gapplan.New()}

	dest, err := os.Open(f.Path)
	if err != nil {
		rep.Err = fmt.Errorf("open %s: %w", f.Path, err)
		return rep
	}
	defer dest.Close()

	fi, err := dest.Stat()
	if err != nil {
		rep.Err = fmt.Errorf("stat %s: %w", f.Path, err)
		return rep
	}
	if uint32(fi.Size()/blockio.BlockSize) != f.ExpectedBlocks || fi.Size()%blockio.BlockSize != 0 {
		rep.Err = fmt.Errorf("size mismatch for %s: have %d bytes, want %d blocks", f.Path, fi.Size(), f.ExpectedBlocks)
		return rep
	}

	discBuf := blockio.GetBuffer()
	defer blockio.PutBuffer(discBuf)
	destBuf := blockio.GetBuffer()
	defer blockio.PutBuffer(destBuf)

	var cur uint32
	for cur < f.ExpectedBlocks {
		chunk := f.ExpectedBlocks - cur
		if chunk > blockio.MaxChunkBlocks {
			chunk = blockio.MaxChunkBlocks
		}

		chunkBytes := int(chunk) * blockio.BlockSize

		n, err := reader.ReadBlocks(f.DVDOffset+cur, chunk, discBuf[:chunkBytes])
		if err != nil || uint32(n) != chunk {
			rep.Err = fmt.Errorf("compare %s: disc read failed at block %d", f.Path, cur)
			return rep
		}

		if _, err := blockio.ReadFullAt(dest, destBuf[:chunkBytes], int64(cur)*blockio.BlockSize); err != nil {
			rep.Err = fmt.Errorf("compare %s: destination read failed at block %d: %w", f.Path, cur, err)
			return rep
		}

		for i := uint32(0); i < chunk; i++ {
			a := discBuf[int(i)*blockio.BlockSize : int(i+1)*blockio.BlockSize]
			b := destBuf[int(i)*blockio.BlockSize : int(i+1)*blockio.BlockSize]
			if string(a) != string(b) {
				rep.Err = &verify.MismatchError{Block: cur + i}
				return rep
			}
		}

		cur += chunk
	}

	log.Info().Str("file", f.Path).Msg("compare passed")
	return rep
}
