package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	md2deck "github.com/alnah/go-md2deck"
)

// maxHeadingWidth truncates long headings in the outline.
const maxHeadingWidth = 48

// printOutline renders the slide plan of a dry run as a table.
func printOutline(w io.Writer, source string, plan *md2deck.SlidePlan) {
	if plan == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle(source)
	t.AppendHeader(table.Row{"#", "Kind", "Heading", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, WidthMax: maxHeadingWidth},
	})

	for i, s := range plan.Slides {
		t.AppendRow(table.Row{i + 1, s.Spec.Kind(), s.Spec.Heading(), slideDetail(s.Spec)})
	}

	st := plan.Stats()
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d slides", st.Slides),
		fmt.Sprintf("%d words, %d code lines, budget %d", st.Words, st.CodeLines, st.MaxWords)})
	t.Render()
}

// slideDetail summarizes what a slide carries.
func slideDetail(spec md2deck.SlideSpec) string {
	switch s := spec.(type) {
	case *md2deck.TitleSlide:
		return strings.Join(nonEmpty(s.Author, s.Date), ", ")
	case *md2deck.ContentSlide:
		d := fmt.Sprintf("%d words", s.Words())
		if s.Parts > 1 {
			d += fmt.Sprintf(" (%d/%d)", s.Part, s.Parts)
		}
		return d
	case *md2deck.CodeSlide:
		lang := s.Language
		if lang == "" {
			lang = "text"
		}
		d := fmt.Sprintf("%s lines %d-%d", lang, s.StartLine, s.EndLine())
		if s.Chunks > 1 {
			d += fmt.Sprintf(" (%d/%d)", s.Chunk, s.Chunks)
		}
		return d
	case *md2deck.VisualSlide:
		if s.Diagram {
			return "diagram " + s.Path
		}
		return s.Path
	case *md2deck.ConclusionSlide:
		d := fmt.Sprintf("%d bullets", len(s.Bullets))
		if s.Synthesized {
			d += " (synthesized)"
		}
		return d
	}
	return ""
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
