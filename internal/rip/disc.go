package rip

import (
	"fmt"
	"path/filepath"

	"dvdgap/internal/blockio"
)

// MaxPartBlocks is the 1 GiB cap on a single title-part VOB.
const MaxPartBlocks = 524288

// FileKind identifies which of the fixed VIDEO_TS file roles an
// OutputFile plays.
type FileKind int

const (
	KindVMGIFO FileKind = iota
	KindVMGBUP
	KindTitleIFO
	KindTitleBUP
	KindMenuVOB
	KindTitlePartVOB
)

// FileSpec is the caller-supplied description of one output file: its
// role, and where its bytes come from on the disc. Building this from
// IFO/BUP data and the "main feature" heuristic is a separate,
// out-of-scope collaborator -- BuildManifest only turns specs into
// OutputFile entries with the right path and naming.
type FileSpec struct {
	Kind           FileKind
	TitleSet       int // "ss": 0 for VMG, 1..99 for a title set
	Part           int // 1..9 for KindTitlePartVOB, ignored otherwise
	ExpectedBlocks uint32
	DVDOffset      uint32 // base LBA on disc where this file's bytes begin
}

// OutputFile is one destination file the orchestrator will process.
type OutputFile struct {
	Kind           FileKind
	TitleSet       int
	Part           int
	Path           string
	ExpectedBlocks uint32
	DVDOffset      uint32
}

// Disc is the manifest the orchestrator walks: an ordered list of
// output files plus the sector reader and per-file disc offsets needed
// to fill them.
type Disc struct {
	Reader blockio.Reader
	Files  []OutputFile
}

func fileName(spec FileSpec) (string, error) {
	switch spec.Kind {
	case KindVMGIFO:
		return "VIDEO_TS.IFO", nil
	case KindVMGBUP:
		return "VIDEO_TS.BUP", nil
	case KindTitleIFO:
		return fmt.Sprintf("VTS_%02d_0.IFO", spec.TitleSet), nil
	case KindTitleBUP:
		return fmt.Sprintf("VTS_%02d_0.BUP", spec.TitleSet), nil
	case KindMenuVOB:
		return fmt.Sprintf("VTS_%02d_0.VOB", spec.TitleSet), nil
	case KindTitlePartVOB:
		if spec.Part < 1 || spec.Part > 9 {
			return "", fmt.Errorf("rip: title part %d out of range 1..9", spec.Part)
		}
		return fmt.Sprintf("VTS_%02d_%d.VOB", spec.TitleSet, spec.Part), nil
	default:
		return "", fmt.Errorf("rip: unknown file kind %v", spec.Kind)
	}
}

// BuildManifest turns a caller-supplied list of file specs into the
// OutputFile list rooted at <targetDir>/<titleName>/VIDEO_TS/. It keeps
// the specs' order, which becomes the processing order; it does not sort
// them into IFO/BUP -> menu -> titled-VOB-parts order itself
// (BuildTitleDisc supplies them in that order).
func BuildManifest(reader blockio.Reader, targetDir, titleName string, specs []FileSpec) (*Disc, error) {
	videoTSDir := filepath.Join(targetDir, titleName, "VIDEO_TS")

	files := make([]OutputFile, 0, len(specs))
	for _, spec := range specs {
		name, err := fileName(spec)
		if err != nil {
			return nil, err
		}
		if spec.Kind == KindTitlePartVOB && spec.ExpectedBlocks > MaxPartBlocks {
			return nil, fmt.Errorf("rip: title part %d exceeds %d blocks (1 GiB)", spec.Part, MaxPartBlocks)
		}
		files = append(files, OutputFile{
			Kind:           spec.Kind,
			TitleSet:       spec.TitleSet,
			Part:           spec.Part,
			Path:           filepath.Join(videoTSDir, name),
			ExpectedBlocks: spec.ExpectedBlocks,
			DVDOffset:      spec.DVDOffset,
		})
	}

	return &Disc{Reader: reader, Files: files}, nil
}

// SplitTitleParts splits a title's total VOB block count into a
// sequence of part sizes, each capped at MaxPartBlocks, front-aligned
// (every part but the last is exactly MaxPartBlocks), and bounded to at
// most 9 parts as required by the VTS_ss_1..9.VOB naming scheme.
func SplitTitleParts(totalBlocks uint32) ([]uint32, error) {
	if totalBlocks == 0 {
		return nil, nil
	}
	var parts []uint32
	remaining := totalBlocks
	for remaining > 0 {
		if len(parts) == 9 {
			return nil, fmt.Errorf("rip: title content of %d blocks needs more than 9 parts", totalBlocks)
		}
		part := remaining
		if part > MaxPartBlocks {
			part = MaxPartBlocks
		}
		parts = append(parts, part)
		remaining -= part
	}
	return parts, nil
}
