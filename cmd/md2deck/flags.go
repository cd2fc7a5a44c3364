package main

import (
	"errors"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage reports wrong positional arguments.
var ErrUsage = errors.New("usage error")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// limitFlags holds slide density flags.
type limitFlags struct {
	maxWords     int
	maxCodeLines int
	minSlides    int
}

// runFlags holds execution flags that never reach the ledger.
type runFlags struct {
	force   bool
	dryRun  bool
	watch   bool
	workers int
	timeout string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common      commonFlags
	outputs     []string
	theme       string
	aspectRatio string
	dateFormat  string
	outDir      string
	credentials string
	ledgerDB    string
	assetPath   string
	limits      limitFlags
	run         runFlags

	// set records the flags given on the command line, so an explicit zero
	// still overrides env and config values.
	set map[string]bool
}

// changed reports whether name was given on the command line.
func (f *convertFlags) changed(name string) bool { return f.set[name] }

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and debug logs")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

// addLimitFlags adds slide density flags to a FlagSet.
func addLimitFlags(fs *flag.FlagSet, f *limitFlags) {
	fs.IntVar(&f.maxWords, "max-words-per-slide", 0, "word budget of a content slide (default 120)")
	fs.IntVar(&f.maxCodeLines, "max-code-lines", 0, "lines per code slide (default 20)")
	fs.IntVar(&f.minSlides, "min-slides", 0, "warn when the deck is shorter (default 3)")
}

// addRunFlags adds execution flags to a FlagSet.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	fs.BoolVar(&f.force, "force-regenerate", false, "render even if the ledger says nothing changed")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the slide outline and write nothing")
	fs.BoolVar(&f.watch, "watch", false, "convert again whenever the source changes")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions for a directory (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-file timeout (e.g., 30s, 2m)")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	fs.StringArrayVarP(&f.outputs, "output", "o", nil, "target: binary, cloud, notes or all (repeatable)")
	fs.StringVar(&f.theme, "theme", "", "theme: light, dark, technical or a custom name")
	fs.StringVar(&f.aspectRatio, "aspect-ratio", "", "aspect ratio: 16:9, 4:3, 16:10")
	fs.StringVar(&f.dateFormat, "date-format", "", "title date format (e.g., long, DD/MM/YYYY)")
	fs.StringVar(&f.outDir, "out-dir", "", "artifact directory (default: slides/ next to the source)")
	fs.StringVar(&f.credentials, "credentials", "", "cloud credentials: token file, key file or env:VAR")
	fs.StringVar(&f.ledgerDB, "ledger-db", "", "SQLite ledger shared by every source")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom theme and template directory")

	addCommonFlags(fs, &f.common)
	addLimitFlags(fs, &f.limits)
	addRunFlags(fs, &f.run)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f, fs.Args(), nil
}

// infoFlags holds flags for the info command.
type infoFlags struct {
	ledgerDB string
	json     bool
}

// parseInfoFlags parses info command flags and returns positional args.
func parseInfoFlags(args []string, usage io.Writer) (*infoFlags, []string, error) {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &infoFlags{}

	fs.StringVar(&f.ledgerDB, "ledger-db", "", "SQLite ledger to query instead of a record file")
	fs.BoolVar(&f.json, "json", false, "print JSON")
	fs.Usage = func() { printInfoUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	json bool
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, usage io.Writer) (*doctorFlags, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &doctorFlags{}

	fs.BoolVar(&f.json, "json", false, "print JSON")
	fs.Usage = func() { printDoctorUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
