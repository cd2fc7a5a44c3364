package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	flag "github.com/spf13/pflag"

	md2deck "github.com/alnah/go-md2deck"
	"github.com/alnah/go-md2deck/internal/ledger"
)

// runInfoCmd prints a generation record and returns an exit code.
func runInfoCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseInfoFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	return reportError(env, runInfo(ctx, positional, flags, env.Stdout), hintContext{})
}

// runInfo loads the requested records. Without --ledger-db the argument is
// a .ledger.yaml file. With it, the argument is a source path, and no
// argument lists every source of the database.
func runInfo(ctx context.Context, positional []string, flags *infoFlags, w io.Writer) error {
	if len(positional) > 1 {
		return fmt.Errorf("%w: info takes one argument, got %d", ErrUsage, len(positional))
	}

	if flags.ledgerDB == "" {
		if len(positional) == 0 {
			return fmt.Errorf("%w: info needs a %s file or --ledger-db", ErrUsage, ledger.RecordSuffix)
		}
		rec, err := ledger.ReadRecordFile(positional[0])
		if err != nil {
			return &md2deck.IOError{Op: "read", Path: positional[0], Err: err}
		}
		return printRecord(w, rec, flags.json)
	}

	db, err := ledger.OpenSQLite(flags.ledgerDB)
	if err != nil {
		return &md2deck.IOError{Op: "open", Path: flags.ledgerDB, Err: err}
	}
	defer func() { _ = db.Close() }()

	if len(positional) == 0 {
		recs, err := db.List(ctx)
		if err != nil {
			return err
		}
		return printRecordList(w, recs, flags.json)
	}

	source, err := filepath.Abs(positional[0])
	if err != nil {
		return &md2deck.IOError{Op: "resolve", Path: positional[0], Err: err}
	}
	rec, err := db.Get(ctx, source)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: %s in %s", err, source, flags.ledgerDB)
		}
		return err
	}
	return printRecord(w, rec, flags.json)
}

func printRecord(w io.Writer, rec *ledger.Record, asJSON bool) error {
	if asJSON {
		return writeJSON(w, rec)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(rec.SourcePath)
	t.AppendRows([]table.Row{
		{"Run", rec.RunID},
		{"Created", rec.CreatedAt.Format(time.RFC3339)},
		{"Duration", rec.Duration().String()},
		{"Content hash", shortHash(rec.ContentHash)},
		{"Theme", fmt.Sprintf("%s, %s", rec.Config.Theme, rec.Config.AspectRatio)},
		{"Limits", fmt.Sprintf("%d words, %d code lines, min %d slides",
			rec.Config.MaxWordsPerSlide, rec.Config.MaxCodeLines, rec.Config.MinSlides)},
		{"Output", rec.Config.OutputDir},
		{"Slides", fmt.Sprintf("%d (%d content, %d code, %d visual, %d conclusion)",
			rec.Stats.Slides, rec.Stats.Content, rec.Stats.Code, rec.Stats.Visual, rec.Stats.Conclusions)},
		{"Warnings", rec.Warnings},
	})
	t.Render()

	if len(rec.Targets) == 0 {
		return nil
	}
	tt := table.NewWriter()
	tt.SetOutputMirror(w)
	tt.SetStyle(table.StyleLight)
	tt.AppendHeader(table.Row{"Target", "Status", "Artifact", "Error"})
	for _, tr := range rec.Targets {
		where := tr.Path
		if tr.Location != "" {
			where = tr.Location
		}
		tt.AppendRow(table.Row{tr.Target, tr.Status, where, tr.Error})
	}
	tt.Render()
	return nil
}

func printRecordList(w io.Writer, recs []*ledger.Record, asJSON bool) error {
	if asJSON {
		if recs == nil {
			recs = []*ledger.Record{}
		}
		return writeJSON(w, recs)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Source", "Slides", "Targets", "Created"})
	for _, rec := range recs {
		t.AppendRow(table.Row{rec.SourcePath, rec.SlideCount, targetSummary(rec), rec.CreatedAt.Format(time.RFC3339)})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d source(s)", len(recs)), "", "", ""})
	t.Render()
	return nil
}

// targetSummary renders "binary:ok notes:ok" in record order.
func targetSummary(rec *ledger.Record) string {
	parts := make([]string, len(rec.Targets))
	for i, tr := range rec.Targets {
		parts[i] = tr.Target + ":" + tr.Status
	}
	return strings.Join(parts, " ")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
