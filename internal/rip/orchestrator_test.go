package rip

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dvdgap/internal/blockio"
	"dvdgap/internal/fillexec"
	"dvdgap/internal/verify"
)

func discData(totalBlocks int) []byte {
	data := make([]byte, totalBlocks*blockio.BlockSize)
	for b := 0; b < totalBlocks; b++ {
		for i := 0; i < blockio.BlockSize; i++ {
			data[b*blockio.BlockSize+i] = byte(b + 1)
		}
	}
	return data
}

func manifestFile(t *testing.T, dir string, blocks uint32) OutputFile {
	t.Helper()
	return OutputFile{
		Kind:           KindTitlePartVOB,
		TitleSet:       1,
		Part:           1,
		Path:           filepath.Join(dir, "VTS_01_1.VOB"),
		ExpectedBlocks: blocks,
		DVDOffset:      0,
	}
}

// S1: fresh empty destination, gap-fill mode, no faults -> fully filled,
// no blanks remain.
func TestOrchestratorGapFillFreshFile(t *testing.T) {
	dir := t.TempDir()
	disc := &Disc{
		Reader: &blockio.SimReader{Data: discData(20)},
		Files:  []OutputFile{manifestFile(t, dir, 20)},
	}

	cfg := DefaultConfig()
	cfg.GapFill = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)

	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	rep := reports[0]
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if rep.BlankAfter != 0 {
		t.Errorf("BlankAfter = %d, want 0", rep.BlankAfter)
	}
	if rep.FilledBlocks != 20 {
		t.Errorf("FilledBlocks = %d, want 20", rep.FilledBlocks)
	}
}

// S2: a partially-populated destination with an interior gap and a
// truncated tail gets fully repaired in gap-fill mode.
func TestOrchestratorGapFillRepairsPartialFile(t *testing.T) {
	dir := t.TempDir()
	data := discData(10)

	existing := make([]byte, 7*blockio.BlockSize)
	copy(existing, data[:3*blockio.BlockSize])
	// blocks 3..4 blank (zero), block 5..6 present
	copy(existing[5*blockio.BlockSize:], data[5*blockio.BlockSize:7*blockio.BlockSize])

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, existing, 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 10, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.GapFill = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	rep := reports[0]

	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if rep.TruncatedBefore != 3 {
		t.Errorf("TruncatedBefore = %d, want 3", rep.TruncatedBefore)
	}
	if rep.BlankAfter != 0 {
		t.Errorf("BlankAfter = %d, want 0", rep.BlankAfter)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("final file size = %d, want %d", len(got), len(data))
	}
	for i := range got {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch after repair", i)
		}
	}
}

// S3: a read error under the Abort strategy stops the fill and is
// reported as the file's error.
func TestOrchestratorGapFillAbortsOnReadError(t *testing.T) {
	dir := t.TempDir()
	data := discData(10)

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, make([]byte, 0), 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data, Faults: []blockio.Fault{{Block: 4, Err: blockio.ErrReadFailed}}},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 10, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.GapFill = true
	cfg.ErrorStrategy = fillexec.Abort
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	rep := reports[0]

	if rep.Err == nil {
		t.Fatal("expected an error, got nil")
	}
}

// S4: SkipBlock lets the fill continue past a bad block and leaves
// exactly that block blank. The destination already has every block but
// one (block 4), so the gap plan is a single one-block range and the
// fault triggers on exactly that request.
func TestOrchestratorGapFillSkipBlockLeavesHole(t *testing.T) {
	dir := t.TempDir()
	data := discData(10)

	existing := make([]byte, 10*blockio.BlockSize)
	copy(existing, data[:4*blockio.BlockSize])
	copy(existing[5*blockio.BlockSize:], data[5*blockio.BlockSize:10*blockio.BlockSize])

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, existing, 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data, Faults: []blockio.Fault{{Block: 4, Err: blockio.ErrReadFailed}}},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 10, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.GapFill = true
	cfg.ErrorStrategy = fillexec.SkipBlock
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	rep := reports[0]

	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	if rep.BlankAfter != 1 {
		t.Errorf("BlankAfter = %d, want 1 (block 4 only)", rep.BlankAfter)
	}
}

// S5: --compare on a byte-identical destination reports success.
func TestOrchestratorCompareMatches(t *testing.T) {
	dir := t.TempDir()
	data := discData(8)

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 8, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.CompareOnly = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	if reports[0].Err != nil {
		t.Fatalf("unexpected error: %v", reports[0].Err)
	}
}

// S6: --compare reports the first diverging block on a byte mismatch.
func TestOrchestratorCompareDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	data := discData(8)
	corrupt := make([]byte, len(data))
	copy(corrupt, data)
	corrupt[5*blockio.BlockSize] ^= 0xFF

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, corrupt, 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 8, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.CompareOnly = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)

	var mismatch *verify.MismatchError
	if !errors.As(reports[0].Err, &mismatch) {
		t.Fatalf("expected *verify.MismatchError, got %v", reports[0].Err)
	}
	if mismatch.Block != 5 {
		t.Errorf("mismatch block = %d, want 5", mismatch.Block)
	}
}

// S7: --compare against a destination of the wrong size reports a size
// mismatch rather than a block-level divergence.
func TestOrchestratorCompareDetectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	data := discData(8)

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, data[:5*blockio.BlockSize], 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 8, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.CompareOnly = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	if reports[0].Err == nil {
		t.Fatal("expected a size-mismatch error, got nil")
	}
}

// Initial-copy mode with --no-overwrite refuses to touch an existing
// non-empty destination.
func TestOrchestratorInitialCopyNoOverwriteRefuses(t *testing.T) {
	dir := t.TempDir()
	data := discData(4)

	path := filepath.Join(dir, "VTS_01_1.VOB")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 4, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	cfg.NoOverwrite = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	if reports[0].Err == nil {
		t.Fatal("expected refusal error, got nil")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Fatalf("file was modified despite --no-overwrite: %v", got)
	}
}

// Initial-copy mode on a fresh file copies the whole disc sequentially.
func TestOrchestratorInitialCopyFreshFile(t *testing.T) {
	dir := t.TempDir()
	data := discData(6)
	path := filepath.Join(dir, "VTS_01_1.VOB")

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files:  []OutputFile{{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: path, ExpectedBlocks: 6, DVDOffset: 0}},
	}

	cfg := DefaultConfig()
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	if reports[0].Err != nil {
		t.Fatalf("unexpected error: %v", reports[0].Err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("size = %d, want %d", len(got), len(data))
	}
}

// Gap-map accumulation across a multi-file run produces a non-empty
// rendered grid once every file has been processed.
func TestOrchestratorGapMapAccumulatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	data := discData(50)

	f1 := filepath.Join(dir, "VTS_01_1.VOB")
	f2 := filepath.Join(dir, "VTS_01_2.VOB")

	disc := &Disc{
		Reader: &blockio.SimReader{Data: data},
		Files: []OutputFile{
			{Kind: KindTitlePartVOB, TitleSet: 1, Part: 1, Path: f1, ExpectedBlocks: 25, DVDOffset: 0},
			{Kind: KindTitlePartVOB, TitleSet: 1, Part: 2, Path: f2, ExpectedBlocks: 25, DVDOffset: 25},
		},
	}

	cfg := DefaultConfig()
	cfg.GapMap = true
	o := NewOrchestrator(cfg)
	reports := o.Run(disc)
	for _, rep := range reports {
		if rep.Err != nil {
			t.Fatalf("unexpected error: %v", rep.Err)
		}
	}

	out := o.GapMapReport()
	if out == "" {
		t.Fatal("expected a non-empty gap-map report")
	}
}
