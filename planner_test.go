package md2deck

// Notes:
// - Documents are built directly so word and line counts are exact
// - Invariants: word budget per content slide, code chunk sizes, no content
//   loss, determinism
// - Conclusion handling: marker mapping, last-marker-wins, synthesis chain
// - Minimum slide count: budget halving and the floor warning

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// words returns n distinct space-separated tokens prefixed with p.
func words(p string, n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("%s%d", p, i+1)
	}
	return strings.Join(ws, " ")
}

func codeLinesN(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func kinds(plan *SlidePlan) []SlideKind {
	out := make([]SlideKind, 0, len(plan.Slides))
	for _, s := range plan.Slides {
		out = append(out, s.Spec.Kind())
	}
	return out
}

func slidesOf[T SlideSpec](plan *SlidePlan) []T {
	var out []T
	for _, s := range plan.Slides {
		if v, ok := s.Spec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// scenarioDocument has five sections, an 18-line and a 45-line code
// sample, one image and no conclusion section.
func scenarioDocument() *Document {
	return &Document{
		Title:    "Scaling Workers",
		Author:   "Ada",
		Abstract: "Why worker pools matter.",
		Sections: []Section{
			{Heading: "Intro", Blocks: []Block{
				&Paragraph{Text: words("intro", 80)},
			}},
			{Heading: "Setup", Blocks: []Block{
				&Paragraph{Text: words("setup", 50)},
				&CodeSample{Language: "go", Lines: codeLinesN(18), Context: "Start here"},
			}},
			{Heading: "Deep Dive", Blocks: []Block{
				&Paragraph{Text: words("deep", 200)},
				&CodeSample{Language: "go", Lines: codeLinesN(45)},
			}},
			{Heading: "Architecture", Blocks: []Block{
				&Paragraph{Text: words("arch", 30)},
				&ImageRef{Path: "arch.png", Resolved: "/tmp/arch.png", Caption: "Overview"},
			}},
			{Heading: "Operations", Blocks: []Block{
				&BulletList{Items: []string{words("a", 10), words("b", 10), words("c", 10)}},
			}},
		},
	}
}

// ---------------------------------------------------------------------------
// TestPlan_Scenario - Full Article Layout
// ---------------------------------------------------------------------------

func TestPlan_Scenario(t *testing.T) {
	t.Parallel()

	plan, warnings := Plan(scenarioDocument(), PlanConfig{MaxWordsPerSlide: 120, MaxCodeLines: 20})

	// Intro, Setup, Deep Dive, Architecture, Operations, synthesized close.
	want := []SlideKind{
		SlideTitle,
		SlideContent,
		SlideContent, SlideCode,
		SlideContent, SlideContent, SlideCode, SlideCode, SlideCode,
		SlideContent, SlideVisual,
		SlideContent,
		SlideConclusion,
	}
	if got := kinds(plan); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v\nwant    %v", got, want)
	}

	st := plan.Stats()
	if st.Content < 5 || st.Code != 4 || st.Visual != 1 || st.Conclusions != 1 {
		t.Errorf("stats = %+v", st)
	}

	code := slidesOf[*CodeSlide](plan)
	var sizes, starts []int
	for _, c := range code {
		sizes = append(sizes, len(c.Lines))
		starts = append(starts, c.StartLine)
	}
	if !reflect.DeepEqual(sizes, []int{18, 20, 20, 5}) {
		t.Errorf("chunk sizes = %v, want [18 20 20 5]", sizes)
	}
	if !reflect.DeepEqual(starts, []int{1, 1, 21, 41}) {
		t.Errorf("start lines = %v, want [1 1 21 41]", starts)
	}
	if code[1].Chunks != 3 || code[3].Chunk != 3 || code[3].EndLine() != 45 {
		t.Errorf("last chunk = %+v", code[3])
	}

	if got := warningCodes(warnings); !reflect.DeepEqual(got, []WarningCode{WarnSynthesizedConclusion}) {
		t.Errorf("warnings = %v", warnings)
	}

	if plan.MaxWordsPerSlide != 120 || plan.MaxCodeLines != 20 {
		t.Errorf("effective limits = %d/%d", plan.MaxWordsPerSlide, plan.MaxCodeLines)
	}
}

func TestPlan_TitleSlide(t *testing.T) {
	t.Parallel()

	doc := scenarioDocument()
	doc.Date = "2024-05-01"
	doc.Tags = []string{"go"}
	plan, _ := Plan(doc, PlanConfig{})

	title, ok := plan.Slides[0].Spec.(*TitleSlide)
	if !ok {
		t.Fatalf("first slide is %T, want *TitleSlide", plan.Slides[0].Spec)
	}
	if title.Title != "Scaling Workers" || title.Author != "Ada" || title.Date != "2024-05-01" {
		t.Errorf("title slide = %+v", title)
	}
	wantNotes := "Presenting: Scaling Workers\nAuthor: Ada\n\nWhy worker pools matter."
	if plan.Slides[0].Notes != wantNotes {
		t.Errorf("notes = %q, want %q", plan.Slides[0].Notes, wantNotes)
	}
}

// ---------------------------------------------------------------------------
// TestPlan_WordBudget - Content Slide Density
// ---------------------------------------------------------------------------

func TestPlan_WordBudget(t *testing.T) {
	t.Parallel()

	for _, budget := range []int{25, 40, 120, 500} {
		t.Run(fmt.Sprintf("budget %d", budget), func(t *testing.T) {
			t.Parallel()

			plan, _ := Plan(scenarioDocument(), PlanConfig{MaxWordsPerSlide: budget, MinSlides: 1})
			for i, c := range slidesOf[*ContentSlide](plan) {
				if w := c.Words(); w > plan.MaxWordsPerSlide {
					t.Errorf("content slide %d has %d words, budget %d", i, w, plan.MaxWordsPerSlide)
				}
			}
		})
	}
}

func TestPlan_RunPacking(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		paragraphs []int
		wantSlides [][]int // words per run, per slide
	}{
		{
			name:       "runs that fit share a slide",
			paragraphs: []int{50, 60},
			wantSlides: [][]int{{50, 60}},
		},
		{
			name:       "run that does not fit closes the slide",
			paragraphs: []int{70, 60},
			wantSlides: [][]int{{70}, {60}},
		},
		{
			name:       "exact fit",
			paragraphs: []int{100, 20},
			wantSlides: [][]int{{100, 20}},
		},
		{
			name:       "oversized run is cut into budget chunks",
			paragraphs: []int{10, 300, 15},
			wantSlides: [][]int{{10}, {120}, {120}, {60, 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var blocks []Block
			for i, n := range tt.paragraphs {
				blocks = append(blocks, &Paragraph{Text: words(fmt.Sprintf("p%d-", i), n)})
			}
			doc := &Document{Title: "T", Sections: []Section{{Heading: "S", Blocks: blocks}}}

			plan, _ := Plan(doc, PlanConfig{MaxWordsPerSlide: 120, MinSlides: 1})

			var got [][]int
			for _, c := range slidesOf[*ContentSlide](plan) {
				var runs []int
				for _, r := range c.Runs {
					runs = append(runs, countWords(r.Text))
				}
				got = append(got, runs)
			}
			if !reflect.DeepEqual(got, tt.wantSlides) {
				t.Errorf("slides = %v, want %v", got, tt.wantSlides)
			}
		})
	}
}

func TestPlan_SplitRunFlags(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{{Heading: "S", Blocks: []Block{
		&Paragraph{Text: words("w", 250)},
	}}}}
	plan, _ := Plan(doc, PlanConfig{MaxWordsPerSlide: 100, MinSlides: 1})

	content := slidesOf[*ContentSlide](plan)
	if len(content) != 3 {
		t.Fatalf("got %d content slides, want 3", len(content))
	}

	flags := [][2]bool{}
	for _, c := range content {
		r := c.Runs[0]
		flags = append(flags, [2]bool{r.Continued, r.Continues})
	}
	want := [][2]bool{{false, true}, {true, true}, {true, false}}
	if !reflect.DeepEqual(flags, want) {
		t.Errorf("continued/continues = %v, want %v", flags, want)
	}

	for i, c := range content {
		if c.Part != i+1 || c.Parts != 3 {
			t.Errorf("slide %d part = %d/%d, want %d/3", i, c.Part, c.Parts, i+1)
		}
	}

	// Every chunk's notes carry the whole paragraph.
	for _, s := range plan.Slides {
		if _, ok := s.Spec.(*ContentSlide); ok && s.Notes != words("w", 250) {
			t.Errorf("notes = %q, want the full paragraph", s.Notes)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPlan_NoContentLoss - Text Preservation
// ---------------------------------------------------------------------------

func TestPlan_NoContentLoss(t *testing.T) {
	t.Parallel()

	doc := scenarioDocument()
	doc.Sections = append(doc.Sections, Section{Heading: "Mixed", Blocks: []Block{
		&Paragraph{Text: "Short lead."},
		&BulletList{Items: []string{words("x", 130), "tail item"}},
		&Paragraph{Text: words("y", 45)},
	}})

	for _, budget := range []int{25, 60, 120} {
		plan, _ := Plan(doc, PlanConfig{MaxWordsPerSlide: budget, MinSlides: 1})

		for _, sec := range doc.Sections {
			var want []string
			for _, b := range sec.Blocks {
				switch b := b.(type) {
				case *Paragraph:
					want = append(want, b.Text)
				case *BulletList:
					want = append(want, b.Items...)
				}
			}

			var got []string
			for _, c := range slidesOf[*ContentSlide](plan) {
				if c.Section != sec.Heading {
					continue
				}
				for _, r := range c.Runs {
					got = append(got, r.Text)
				}
			}

			if strings.Join(got, " ") != strings.Join(want, " ") {
				t.Errorf("budget %d, section %q: text not preserved", budget, sec.Heading)
			}
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := PlanConfig{MaxWordsPerSlide: 40, MaxCodeLines: 7}
	p1, w1 := Plan(scenarioDocument(), cfg)
	p2, w2 := Plan(scenarioDocument(), cfg)

	if !reflect.DeepEqual(p1, p2) {
		t.Error("plans differ between runs")
	}
	if !reflect.DeepEqual(w1, w2) {
		t.Error("warnings differ between runs")
	}
}

// ---------------------------------------------------------------------------
// TestPlan_Code - Code Chunking
// ---------------------------------------------------------------------------

func TestPlan_CodeChunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lines, max int
		want       []int
	}{
		{lines: 1, max: 20, want: []int{1}},
		{lines: 20, max: 20, want: []int{20}},
		{lines: 21, max: 20, want: []int{20, 1}},
		{lines: 45, max: 20, want: []int{20, 20, 5}},
		{lines: 9, max: 3, want: []int{3, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines by %d", tt.lines, tt.max), func(t *testing.T) {
			t.Parallel()

			doc := &Document{Title: "T", Sections: []Section{{Heading: "S", Blocks: []Block{
				&CodeSample{Language: "python", Lines: codeLinesN(tt.lines)},
			}}}}
			plan, _ := Plan(doc, PlanConfig{MaxCodeLines: tt.max, MinSlides: 1})

			var got []string
			var sizes []int
			for _, c := range slidesOf[*CodeSlide](plan) {
				sizes = append(sizes, len(c.Lines))
				got = append(got, c.Lines...)
				if c.Language != "python" || c.Section != "S" {
					t.Errorf("chunk = %+v", c)
				}
			}
			if !reflect.DeepEqual(sizes, tt.want) {
				t.Errorf("sizes = %v, want %v", sizes, tt.want)
			}
			if !reflect.DeepEqual(got, codeLinesN(tt.lines)) {
				t.Error("joined chunks differ from the sample")
			}
		})
	}
}

func TestPlan_CodeFlushesOpenSlide(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{{Heading: "S", Blocks: []Block{
		&Paragraph{Text: "before"},
		&CodeSample{Lines: []string{"x"}},
		&Paragraph{Text: "after"},
	}}}}
	plan, _ := Plan(doc, PlanConfig{MinSlides: 1})

	want := []SlideKind{SlideTitle, SlideContent, SlideCode, SlideContent, SlideConclusion}
	if got := kinds(plan); !reflect.DeepEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestPlan_Images - Visual Slides
// ---------------------------------------------------------------------------

func TestPlan_MissingImageSkipped(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{{Heading: "S", Blocks: []Block{
		&Paragraph{Text: "look"},
		&ImageRef{Path: "gone.png", Missing: true, Line: 9},
		&ImageRef{Path: "https://example.com/x.png", Resolved: "https://example.com/x.png", Remote: true},
	}}}}
	plan, warnings := Plan(doc, PlanConfig{MinSlides: 1})

	visuals := slidesOf[*VisualSlide](plan)
	if len(visuals) != 1 || visuals[0].Source != "https://example.com/x.png" {
		t.Errorf("visuals = %+v, want only the remote image", visuals)
	}

	skipped := PlannerWarnings(warnings)
	if len(skipped) == 0 || skipped[0].Code != WarnImageSkipped || skipped[0].Line != 9 {
		t.Errorf("warnings = %v", warnings)
	}
}

// ---------------------------------------------------------------------------
// TestPlan_Conclusion - Closing Slide
// ---------------------------------------------------------------------------

func TestPlan_ConclusionSectionMapped(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{
		{Heading: "Start", Blocks: []Block{&Paragraph{Text: "start text"}}},
		{Heading: "Wrapping Up", Blocks: []Block{
			&Paragraph{Text: "Channels are great."},
			&CodeSample{Language: "go", Lines: []string{"done()"}},
			&BulletList{Items: []string{"use buffers", "close once"}},
		}},
		{Heading: "Appendix", Blocks: []Block{&Paragraph{Text: "extra"}}},
	}}
	plan, warnings := Plan(doc, PlanConfig{MinSlides: 1})

	want := []SlideKind{SlideTitle, SlideContent, SlideContent, SlideCode, SlideConclusion}
	if got := kinds(plan); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	last := plan.Slides[len(plan.Slides)-1].Spec.(*ConclusionSlide)
	if last.Title != ConclusionHeading || last.CallToAction != CallToAction || last.Synthesized {
		t.Errorf("conclusion = %+v", last)
	}
	if !reflect.DeepEqual(last.Bullets, []string{"Channels are great.", "use buffers", "close once"}) {
		t.Errorf("bullets = %q", last.Bullets)
	}
	if code := slidesOf[*CodeSlide](plan); code[0].Section != "Wrapping Up" {
		t.Errorf("conclusion code section = %q", code[0].Section)
	}
}

func TestPlan_LastConclusionMarkerWins(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{
		{Heading: "Summary of Goals", Blocks: []Block{&Paragraph{Text: "goals"}}},
		{Heading: "Body", Blocks: []Block{&Paragraph{Text: "body"}}},
		{Heading: "TL;DR", Blocks: []Block{&Paragraph{Text: "short"}}},
	}}
	plan, _ := Plan(doc, PlanConfig{MinSlides: 1})

	conclusions := slidesOf[*ConclusionSlide](plan)
	if len(conclusions) != 1 {
		t.Fatalf("got %d conclusion slides, want exactly 1", len(conclusions))
	}
	if !reflect.DeepEqual(conclusions[0].Bullets, []string{"short"}) {
		t.Errorf("bullets = %q", conclusions[0].Bullets)
	}
	if c := slidesOf[*ContentSlide](plan); len(c) != 2 || c[0].Section != "Summary of Goals" {
		t.Errorf("earlier marker section must stay content, got %+v", c)
	}
}

func TestPlan_ExtraConclusionMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		heading     string
		wantBullets []string
	}{
		{"extra marker", "Recap", []string{"recap text"}},
		{"default marker kept", "Conclusion", []string{"recap text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := &Document{Title: "T", Sections: []Section{
				{Heading: "Intro", Blocks: []Block{&Paragraph{Text: "intro text"}}},
				{Heading: tt.heading, Blocks: []Block{&Paragraph{Text: "recap text"}}},
			}}
			plan, warnings := Plan(doc, PlanConfig{MinSlides: 1, ConclusionMarkers: []string{"recap"}})

			last := plan.Slides[len(plan.Slides)-1].Spec.(*ConclusionSlide)
			if last.Synthesized || hasWarning(warnings, WarnSynthesizedConclusion) {
				t.Fatalf("%q was not recognized as the conclusion: %+v %v", tt.heading, last, warnings)
			}
			if !reflect.DeepEqual(last.Bullets, tt.wantBullets) {
				t.Errorf("bullets = %q, want %q", last.Bullets, tt.wantBullets)
			}
		})
	}
}

func TestPlan_SynthesizedConclusion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sections    []Section
		wantBullets []string
	}{
		{
			name: "last section bullets capped at five",
			sections: []Section{
				{Heading: "A", Blocks: []Block{&Paragraph{Text: "a."}}},
				{Heading: "B", Blocks: []Block{&BulletList{Items: []string{"1", "2", "3", "4", "5", "6"}}}},
			},
			wantBullets: []string{"1", "2", "3", "4", "5"},
		},
		{
			name: "first sentence of paragraphs",
			sections: []Section{
				{Heading: "B", Blocks: []Block{
					&Paragraph{Text: "First point. More detail."},
					&Paragraph{Text: "Second point! Even more."},
					&Paragraph{Text: "v1.2 ships soon"},
				}},
			},
			wantBullets: []string{"First point.", "Second point!", "v1.2 ships soon"},
		},
		{
			name: "section headings",
			sections: []Section{
				{Heading: "A", Blocks: []Block{&Paragraph{Text: "text"}}},
				{Heading: "B", Blocks: []Block{&CodeSample{Lines: []string{"x"}}}},
			},
			wantBullets: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := &Document{Title: "T", Sections: tt.sections}
			plan, warnings := Plan(doc, PlanConfig{MinSlides: 1})

			last := plan.Slides[len(plan.Slides)-1].Spec.(*ConclusionSlide)
			if !last.Synthesized {
				t.Error("expected synthesized conclusion")
			}
			if !reflect.DeepEqual(last.Bullets, tt.wantBullets) {
				t.Errorf("bullets = %q, want %q", last.Bullets, tt.wantBullets)
			}
			if !hasWarning(warnings, WarnSynthesizedConclusion) {
				t.Errorf("expected synthesized-conclusion warning, got %v", warnings)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPlan_MinSlides - Re-planning
// ---------------------------------------------------------------------------

func TestPlan_ReplansBelowMinimum(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{{Heading: "Only", Blocks: []Block{
		&Paragraph{Text: words("w", 100)},
	}}}}
	plan, warnings := Plan(doc, PlanConfig{MaxWordsPerSlide: 120, MinSlides: 4})

	if len(plan.Slides) != 4 {
		t.Errorf("got %d slides, want 4", len(plan.Slides))
	}
	if plan.MaxWordsPerSlide != 60 {
		t.Errorf("effective budget = %d, want 60", plan.MaxWordsPerSlide)
	}
	if hasWarning(warnings, WarnBelowMinimumSlides) {
		t.Error("unexpected below-minimum warning")
	}
}

func TestPlan_BelowMinimumAtFloor(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{{Heading: "Only", Blocks: []Block{
		&Paragraph{Text: "tiny"},
	}}}}
	plan, warnings := Plan(doc, PlanConfig{MaxWordsPerSlide: 120, MinSlides: 10})

	if plan.MaxWordsPerSlide != MinWordBudget {
		t.Errorf("effective budget = %d, want %d", plan.MaxWordsPerSlide, MinWordBudget)
	}
	if !hasWarning(warnings, WarnBelowMinimumSlides) {
		t.Errorf("expected below-minimum warning, got %v", warnings)
	}
	// Only one synthesized-conclusion warning survives re-planning.
	n := 0
	for _, w := range warnings {
		if w.Code == WarnSynthesizedConclusion {
			n++
		}
	}
	if n != 1 {
		t.Errorf("got %d synthesized-conclusion warnings, want 1", n)
	}
}

func TestPlan_EmptySectionKeepsHeading(t *testing.T) {
	t.Parallel()

	doc := &Document{Title: "T", Sections: []Section{
		{Heading: "Placeholder"},
		{Heading: "Real", Blocks: []Block{&Paragraph{Text: "text"}}},
	}}
	plan, _ := Plan(doc, PlanConfig{MinSlides: 1})

	content := slidesOf[*ContentSlide](plan)
	if len(content) != 2 || content[0].Section != "Placeholder" || len(content[0].Runs) != 0 {
		t.Errorf("content = %+v", content)
	}
}

func TestFirstSentence(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"One. Two.":           "One.",
		"Why? Because.":       "Why?",
		"no terminator":       "no terminator",
		"Version 2.0 is out.": "Version 2.0 is out.",
		"":                    "",
	}
	for in, want := range tests {
		if got := firstSentence(in); got != want {
			t.Errorf("firstSentence(%q) = %q, want %q", in, got, want)
		}
	}
}
