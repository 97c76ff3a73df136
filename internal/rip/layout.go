package rip

import "dvdgap/internal/blockio"

// TitleLayout is the block-count/offset bookkeeping a real IFO parser
// would hand the walker for one title: where each fixed VIDEO_TS entry
// starts on disc and how big it is. Zero-valued Blocks fields are
// skipped (e.g. a disc with no separate menu VOB).
type TitleLayout struct {
	TitleSet int

	VMGIFOBlocks, VMGIFOOffset uint32
	VMGBUPBlocks, VMGBUPOffset uint32

	TitleIFOBlocks, TitleIFOOffset uint32
	TitleBUPBlocks, TitleBUPOffset uint32

	MenuBlocks, MenuOffset uint32

	// ContentBlocks/ContentOffset describe the title's playable VOB
	// content as one contiguous disc run; BuildTitleDisc splits it into
	// VTS_ss_1..9.VOB parts at the 1 GiB boundary.
	ContentBlocks, ContentOffset uint32
}

// BuildTitleDisc walks a single title's layout and produces the ordered
// rip.Disc manifest for it: VMG IFO/BUP, the title's own IFO/BUP, an
// optional menu VOB, then the title-part VOBs, each file's DVDOffset set
// to where its bytes start on the source disc. It does not parse
// VIDEO_TS.IFO itself; it only turns already-known block counts and
// offsets into a manifest.
func BuildTitleDisc(reader blockio.Reader, targetDir, titleName string, layout TitleLayout) (*Disc, error) {
	var specs []FileSpec

	if layout.VMGIFOBlocks > 0 {
		specs = append(specs, FileSpec{Kind: KindVMGIFO, ExpectedBlocks: layout.VMGIFOBlocks, DVDOffset: layout.VMGIFOOffset})
	}
	if layout.VMGBUPBlocks > 0 {
		specs = append(specs, FileSpec{Kind: KindVMGBUP, ExpectedBlocks: layout.VMGBUPBlocks, DVDOffset: layout.VMGBUPOffset})
	}
	if layout.TitleIFOBlocks > 0 {
		specs = append(specs, FileSpec{Kind: KindTitleIFO, TitleSet: layout.TitleSet, ExpectedBlocks: layout.TitleIFOBlocks, DVDOffset: layout.TitleIFOOffset})
	}
	if layout.TitleBUPBlocks > 0 {
		specs = append(specs, FileSpec{Kind: KindTitleBUP, TitleSet: layout.TitleSet, ExpectedBlocks: layout.TitleBUPBlocks, DVDOffset: layout.TitleBUPOffset})
	}
	if layout.MenuBlocks > 0 {
		specs = append(specs, FileSpec{Kind: KindMenuVOB, TitleSet: layout.TitleSet, ExpectedBlocks: layout.MenuBlocks, DVDOffset: layout.MenuOffset})
	}

	if layout.ContentBlocks > 0 {
		parts, err := SplitTitleParts(layout.ContentBlocks)
		if err != nil {
			return nil, err
		}
		offset := layout.ContentOffset
		for i, partBlocks := range parts {
			specs = append(specs, FileSpec{
				Kind:           KindTitlePartVOB,
				TitleSet:       layout.TitleSet,
				Part:           i + 1,
				ExpectedBlocks: partBlocks,
				DVDOffset:      offset,
			})
			offset += partBlocks
		}
	}

	return BuildManifest(reader, targetDir, titleName, specs)
}
