package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dvdgap/internal/blockio"
	"dvdgap/internal/fillexec"
	"dvdgap/internal/rip"
)

const version = "v0.1"

var (
	flagImage       = flag.String("image", "", "DVD image or block device to rip from")
	flagOut         = flag.String("out", ".", "Destination root directory")
	flagTitle       = flag.String("title", "TITLE1", "Title name, used as the VIDEO_TS parent directory")
	flagLogLevel    = newLogLevelFlag(zerolog.InfoLevel, "log-level", "Log level (trace, debug, info, warn, error, fatal, panic)")
	flagGaps        = flag.Bool("gaps", false, "Scan for gaps and fill only what's missing, instead of a full sequential copy")
	flagNoOverwrite = flag.Bool("no-overwrite", false, "Refuse to truncate existing files in non-gaps mode")
	flagGapStrategy = newFillStrategyFlag(fillexec.Forward, "gap-strategy", "Gap-fill read order (forward, reverse, outside-in, random)")
	flagRandomSeed  = flag.Uint("gap-random-seed", 0, "Seed for the random gap-fill strategy")
	flagErrorMode   = newErrorStrategyFlag(fillexec.Abort, "error", "Read-error handling (abort, skip, skip-multiblock)")
	flagCompare     = flag.Bool("compare", false, "Verify existing destination files against the disc without writing")
	flagGapMap      = flag.Bool("gap-map", false, "Render an ASCII gap map across the whole rip once done")
	flagSamples     = flag.Int("samples", 0, "Verification sample count (0 = default)")

	// Layout flags: stand-ins for the disc-layout-discovery collaborator,
	// a separate out-of-scope concern. A real build wires these from
	// parsed IFO data; here they let the CLI drive rip.BuildTitleDisc
	// directly against a raw image.
	flagTitleSet      = flag.Int("title-set", 1, "Title set number (VTS_ss)")
	flagVMGIFOBlocks  = flag.Uint("vmg-ifo-blocks", 0, "VIDEO_TS.IFO size in blocks")
	flagVMGIFOOffset  = flag.Uint("vmg-ifo-offset", 0, "VIDEO_TS.IFO base LBA")
	flagVMGBUPBlocks  = flag.Uint("vmg-bup-blocks", 0, "VIDEO_TS.BUP size in blocks")
	flagVMGBUPOffset  = flag.Uint("vmg-bup-offset", 0, "VIDEO_TS.BUP base LBA")
	flagTitleIFOBlocks = flag.Uint("title-ifo-blocks", 0, "Title IFO size in blocks")
	flagTitleIFOOffset = flag.Uint("title-ifo-offset", 0, "Title IFO base LBA")
	flagTitleBUPBlocks = flag.Uint("title-bup-blocks", 0, "Title BUP size in blocks")
	flagTitleBUPOffset = flag.Uint("title-bup-offset", 0, "Title BUP base LBA")
	flagMenuBlocks    = flag.Uint("menu-blocks", 0, "Menu VOB size in blocks")
	flagMenuOffset    = flag.Uint("menu-offset", 0, "Menu VOB base LBA")
	flagContentBlocks = flag.Uint("content-blocks", 0, "Title content (playable VOB) size in blocks")
	flagContentOffset = flag.Uint("content-offset", 0, "Title content base LBA")
)

// logLevelFlag implements flag.Value for zerolog.Level.
type logLevelFlag struct {
	level zerolog.Level
}

func newLogLevelFlag(value zerolog.Level, name, usage string) *logLevelFlag {
	p := &logLevelFlag{level: value}
	flag.Var(p, name, usage)
	return p
}

func (f *logLevelFlag) String() string { return f.level.String() }

func (f *logLevelFlag) Set(value string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(value))
	if err != nil {
		return err
	}
	f.level = level
	return nil
}

func (f *logLevelFlag) Get() zerolog.Level { return f.level }

// fillStrategyFlag implements flag.Value for fillexec.FillStrategyKind.
type fillStrategyFlag struct {
	kind fillexec.FillStrategyKind
}

func newFillStrategyFlag(value fillexec.FillStrategyKind, name, usage string) *fillStrategyFlag {
	p := &fillStrategyFlag{kind: value}
	flag.Var(p, name, usage)
	return p
}

func (f *fillStrategyFlag) String() string { return f.kind.String() }

func (f *fillStrategyFlag) Set(value string) error {
	switch strings.ToLower(value) {
	case "forward":
		f.kind = fillexec.Forward
	case "reverse":
		f.kind = fillexec.Reverse
	case "outside-in":
		f.kind = fillexec.OutsideIn
	case "random":
		f.kind = fillexec.Random
	default:
		return fmt.Errorf("unknown gap-strategy %q", value)
	}
	return nil
}

// errorStrategyFlag implements flag.Value for fillexec.ReadErrorStrategy.
type errorStrategyFlag struct {
	strategy fillexec.ReadErrorStrategy
}

func newErrorStrategyFlag(value fillexec.ReadErrorStrategy, name, usage string) *errorStrategyFlag {
	p := &errorStrategyFlag{strategy: value}
	flag.Var(p, name, usage)
	return p
}

func (f *errorStrategyFlag) String() string { return f.strategy.String() }

func (f *errorStrategyFlag) Set(value string) error {
	switch strings.ToLower(value) {
	case "abort":
		f.strategy = fillexec.Abort
	case "skip":
		f.strategy = fillexec.SkipBlock
	case "skip-multiblock":
		f.strategy = fillexec.SkipMultiblock
	default:
		return fmt.Errorf("unknown error strategy %q", value)
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s -image <image> -out <dir> [flags]

Rips a DVD-Video title into a VIDEO_TS-mirroring directory tree, filling
gaps in a partially-ripped destination across repeated passes over
unreliable media.
`, os.Args[0])
	flag.PrintDefaults()
}

func initLogging(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.
		New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    false,
		}).
		With().Timestamp().Caller().
		Logger()
}

func buildLayout() rip.TitleLayout {
	return rip.TitleLayout{
		TitleSet:       *flagTitleSet,
		VMGIFOBlocks:   uint32(*flagVMGIFOBlocks),
		VMGIFOOffset:   uint32(*flagVMGIFOOffset),
		VMGBUPBlocks:   uint32(*flagVMGBUPBlocks),
		VMGBUPOffset:   uint32(*flagVMGBUPOffset),
		TitleIFOBlocks: uint32(*flagTitleIFOBlocks),
		TitleIFOOffset: uint32(*flagTitleIFOOffset),
		TitleBUPBlocks: uint32(*flagTitleBUPBlocks),
		TitleBUPOffset: uint32(*flagTitleBUPOffset),
		MenuBlocks:     uint32(*flagMenuBlocks),
		MenuOffset:     uint32(*flagMenuOffset),
		ContentBlocks:  uint32(*flagContentBlocks),
		ContentOffset:  uint32(*flagContentOffset),
	}
}

func printReport(rep rip.FileReport) {
	status := "ok"
	if rep.Err != nil {
		status = "FAILED: " + rep.Err.Error()
	}
	fmt.Printf("%-40s filled=%-8d blank %d->%d (%.1f%%->%.1f%%) truncated %d->%d [%s]\n",
		rep.File.Path, rep.FilledBlocks,
		rep.BlankBefore, rep.BlankAfter, rep.BlankPercentBefore(), rep.BlankPercentAfter(),
		rep.TruncatedBefore, rep.TruncatedAfter, status)
}

func main() {
	fmt.Printf("dvdgap %s\n", version)

	flag.Usage = usage
	flag.Parse()

	initLogging(flagLogLevel.Get())

	if *flagImage == "" {
		fmt.Fprintln(os.Stderr, "no -image specified")
		usage()
		os.Exit(1)
	}

	reader, err := blockio.OpenFileReader(*flagImage)
	if err != nil {
		log.Error().Err(err).Str("image", *flagImage).Msg("can't open image")
		os.Exit(1)
	}
	defer reader.Close()

	disc, err := rip.BuildTitleDisc(reader, *flagOut, *flagTitle, buildLayout())
	if err != nil {
		log.Error().Err(err).Msg("can't build disc manifest")
		os.Exit(1)
	}
	if err := ensureVideoTSDir(*flagOut, *flagTitle); err != nil {
		log.Error().Err(err).Msg("can't create VIDEO_TS directory")
		os.Exit(1)
	}

	cfg := rip.DefaultConfig()
	cfg.GapFill = *flagGaps
	cfg.NoOverwrite = *flagNoOverwrite
	cfg.CompareOnly = *flagCompare
	cfg.GapMap = *flagGapMap
	cfg.ErrorStrategy = flagErrorMode.strategy
	cfg.FillStrategy = fillexec.FillStrategy{Kind: flagGapStrategy.kind, Seed: uint32(*flagRandomSeed)}
	if *flagSamples > 0 {
		cfg.SampleCount = *flagSamples
	}

	log.Info().Str("image", *flagImage).Str("out", *flagOut).
		Bool("gaps", cfg.GapFill).Bool("compare", cfg.CompareOnly).
		Stringer("strategy", cfg.FillStrategy.Kind).Stringer("error_mode", cfg.ErrorStrategy).
		Msg("starting rip")

	orch := rip.NewOrchestrator(cfg)
	reports := orch.Run(disc)

	failed := false
	for _, rep := range reports {
		printReport(rep)
		if rep.Err != nil {
			failed = true
		}
	}

	if out := orch.GapMapReport(); out != "" {
		fmt.Println(out)
	}

	if failed {
		os.Exit(1)
	}
}

func ensureVideoTSDir(targetDir, titleName string) error {
	return os.MkdirAll(filepath.Join(targetDir, titleName, "VIDEO_TS"), 0755)
}
