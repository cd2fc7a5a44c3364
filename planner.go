package md2deck

import (
	"fmt"
	"slices"
	"strings"
)

// Planning defaults.
const (
	DefaultMaxWordsPerSlide = 120
	DefaultMaxCodeLines     = 20
	DefaultMinSlides        = 3

	// MinWordBudget is the floor the budget is halved down to when a plan
	// falls short of MinSlides.
	MinWordBudget = 25

	// ConclusionHeading titles every conclusion slide.
	ConclusionHeading = "Key Takeaways"
	// CallToAction closes every conclusion slide.
	CallToAction = "Check out the full article and code examples"

	maxSynthesizedTakeaways = 5
)

// DefaultConclusionMarkers are matched case-insensitively against section
// headings to find the article's own conclusion.
var DefaultConclusionMarkers = []string{
	"conclusion",
	"summary",
	"takeaways",
	"wrapping up",
	"final thoughts",
	"tl;dr",
}

// PlanConfig bounds slide density. Zero values take the defaults above.
// ConclusionMarkers extends DefaultConclusionMarkers.
type PlanConfig struct {
	MaxWordsPerSlide  int
	MaxCodeLines      int
	MinSlides         int
	ConclusionMarkers []string
}

func (c PlanConfig) withDefaults() PlanConfig {
	if c.MaxWordsPerSlide <= 0 {
		c.MaxWordsPerSlide = DefaultMaxWordsPerSlide
	}
	if c.MaxCodeLines <= 0 {
		c.MaxCodeLines = DefaultMaxCodeLines
	}
	if c.MinSlides <= 0 {
		c.MinSlides = DefaultMinSlides
	}
	c.ConclusionMarkers = append(slices.Clone(DefaultConclusionMarkers), c.ConclusionMarkers...)
	return c
}

// Plan turns a document into an ordered slide plan. It never fails: content
// it cannot place is reported as planner warnings. When the plan has fewer
// than MinSlides slides the word budget is halved, down to MinWordBudget,
// and the document planned again.
func Plan(doc *Document, cfg PlanConfig) (*SlidePlan, []Warning) {
	cfg = cfg.withDefaults()
	budget := cfg.MaxWordsPerSlide

	for {
		plan, warnings := planWithBudget(doc, cfg, budget)
		if len(plan.Slides) >= cfg.MinSlides {
			return plan, warnings
		}
		if budget <= MinWordBudget {
			warnings = append(warnings, Warning{
				Stage: StagePlanner,
				Code:  WarnBelowMinimumSlides,
				Message: fmt.Sprintf("plan has %d slides, fewer than the minimum of %d at a budget of %d words",
					len(plan.Slides), cfg.MinSlides, budget),
			})
			return plan, warnings
		}
		budget = max(budget/2, MinWordBudget)
	}
}

func planWithBudget(doc *Document, cfg PlanConfig, budget int) (*SlidePlan, []Warning) {
	b := &planBuilder{budget: budget, maxCodeLines: cfg.MaxCodeLines}

	b.titleSlide(doc)

	conclusion := conclusionIndex(doc.Sections, cfg.ConclusionMarkers)
	for i := range doc.Sections {
		if i == conclusion {
			continue
		}
		b.section(&doc.Sections[i])
	}

	if conclusion >= 0 {
		b.conclusionSection(&doc.Sections[conclusion])
	} else {
		b.synthesizedConclusion(doc)
	}

	return &SlidePlan{
		Title:            doc.Title,
		Slides:           b.slides,
		MaxWordsPerSlide: budget,
		MaxCodeLines:     cfg.MaxCodeLines,
	}, b.warnings
}

// conclusionIndex returns the last section whose heading carries a marker,
// or -1.
func conclusionIndex(sections []Section, markers []string) int {
	idx := -1
	for i, s := range sections {
		heading := strings.ToLower(s.Heading)
		for _, m := range markers {
			if m != "" && strings.Contains(heading, strings.ToLower(m)) {
				idx = i
				break
			}
		}
	}
	return idx
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

type planBuilder struct {
	budget       int
	maxCodeLines int

	slides   []Slide
	warnings []Warning

	open *contentDraft
}

// contentDraft is the content slide being filled.
type contentDraft struct {
	section string
	runs    []TextRun
	words   int
	notes   []string
	lastID  int // index of the block whose notes were added last
}

func (d *contentDraft) addNote(blockID int, note string) {
	if len(d.notes) > 0 && d.lastID == blockID {
		return
	}
	d.notes = append(d.notes, note)
	d.lastID = blockID
}

func (b *planBuilder) emit(spec SlideSpec, notes string) {
	b.slides = append(b.slides, Slide{Spec: spec, Notes: notes})
}

func (b *planBuilder) warn(code WarningCode, line int, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{
		Stage:   StagePlanner,
		Code:    code,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (b *planBuilder) titleSlide(doc *Document) {
	notes := fmt.Sprintf("Presenting: %s\nAuthor: %s", doc.Title, doc.Author)
	if doc.Abstract != "" {
		notes += "\n\n" + doc.Abstract
	}
	b.emit(&TitleSlide{
		Title:  doc.Title,
		Author: doc.Author,
		Date:   doc.Date,
		Tags:   append([]string(nil), doc.Tags...),
	}, notes)
}

func (b *planBuilder) section(sec *Section) {
	start := len(b.slides)

	if len(sec.Blocks) == 0 {
		b.emit(&ContentSlide{Section: sec.Heading, Part: 1, Parts: 1}, sec.Heading)
		return
	}

	for id, block := range sec.Blocks {
		switch blk := block.(type) {
		case *Paragraph:
			b.addRun(sec.Heading, id, RunParagraph, blk.Text, blk.Text)
		case *BulletList:
			note := bulletNotes(blk)
			for _, item := range blk.Items {
				b.addRun(sec.Heading, id, RunBullet, item, note)
			}
		case *CodeSample:
			b.flush()
			b.code(sec.Heading, blk)
		case *ImageRef:
			b.flush()
			b.visual(sec.Heading, blk)
		}
	}
	b.flush()

	numberParts(b.slides[start:])
}

// addRun places one paragraph or bullet item. A run that does not fit the
// open slide closes it; a run larger than the whole budget is cut into
// budget-sized chunks, each full chunk on its own slide.
func (b *planBuilder) addRun(section string, blockID int, kind RunKind, text, note string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	if len(words) <= b.budget {
		if b.open != nil && b.open.words+len(words) > b.budget {
			b.flush()
		}
		b.draft(section).add(TextRun{Kind: kind, Text: strings.Join(words, " ")}, len(words), blockID, note)
		return
	}

	b.flush()
	for i := 0; i < len(words); i += b.budget {
		end := min(i+b.budget, len(words))
		run := TextRun{
			Kind:      kind,
			Text:      strings.Join(words[i:end], " "),
			Continued: i > 0,
			Continues: end < len(words),
		}
		b.draft(section).add(run, end-i, blockID, note)
		if run.Continues {
			b.flush()
		}
	}
}

func (b *planBuilder) draft(section string) *contentDraft {
	if b.open == nil {
		b.open = &contentDraft{section: section}
	}
	return b.open
}

func (d *contentDraft) add(run TextRun, words, blockID int, note string) {
	d.runs = append(d.runs, run)
	d.words += words
	d.addNote(blockID, note)
}

// flush closes the open content slide, if any.
func (b *planBuilder) flush() {
	if b.open == nil {
		return
	}
	d := b.open
	b.open = nil
	b.emit(&ContentSlide{Section: d.section, Runs: d.runs}, strings.Join(d.notes, "\n\n"))
}

func numberParts(slides []Slide) {
	var parts []*ContentSlide
	for _, s := range slides {
		if c, ok := s.Spec.(*ContentSlide); ok {
			parts = append(parts, c)
		}
	}
	for i, c := range parts {
		c.Part = i + 1
		c.Parts = len(parts)
	}
}

func bulletNotes(l *BulletList) string {
	var sb strings.Builder
	for i, item := range l.Items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if l.Ordered {
			fmt.Fprintf(&sb, "%d. %s", i+1, item)
		} else {
			sb.WriteString("- " + item)
		}
	}
	return sb.String()
}

// code cuts a sample into ceil(lines/maxCodeLines) slides.
func (b *planBuilder) code(section string, c *CodeSample) {
	if len(c.Lines) == 0 {
		return
	}

	notes := strings.Join(c.Lines, "\n")
	if c.Context != "" {
		notes = c.Context + "\n\n" + notes
	}

	chunks := (len(c.Lines) + b.maxCodeLines - 1) / b.maxCodeLines
	for i := 0; i < chunks; i++ {
		lo := i * b.maxCodeLines
		hi := min(lo+b.maxCodeLines, len(c.Lines))
		b.emit(&CodeSlide{
			Section:   section,
			Language:  c.Language,
			Lines:     append([]string(nil), c.Lines[lo:hi]...),
			StartLine: lo + 1,
			Chunk:     i + 1,
			Chunks:    chunks,
			Context:   c.Context,
		}, notes)
	}
}

func (b *planBuilder) visual(section string, img *ImageRef) {
	if img.Missing {
		b.warn(WarnImageSkipped, img.Line, "image %q skipped: file not found", img.Path)
		return
	}

	notes := "Image: " + img.Path
	if img.Caption != "" {
		notes = img.Caption + "\n" + notes
	}
	b.emit(&VisualSlide{
		Section: section,
		Path:    img.Path,
		Source:  img.Resolved,
		Caption: img.Caption,
		Diagram: img.Diagram,
	}, notes)
}

// ---------------------------------------------------------------------------
// Conclusion
// ---------------------------------------------------------------------------

// conclusionSection maps the article's own conclusion to the closing slide.
// Its code and images are placed just before it.
func (b *planBuilder) conclusionSection(sec *Section) {
	var bullets []string
	for _, block := range sec.Blocks {
		switch blk := block.(type) {
		case *Paragraph:
			bullets = append(bullets, blk.Text)
		case *BulletList:
			bullets = append(bullets, blk.Items...)
		case *CodeSample:
			b.code(sec.Heading, blk)
		case *ImageRef:
			b.visual(sec.Heading, blk)
		}
	}

	b.emit(&ConclusionSlide{
		Title:        ConclusionHeading,
		Bullets:      bullets,
		CallToAction: CallToAction,
	}, conclusionNotes(sec.Heading, bullets))
}

// synthesizedConclusion builds takeaways when the article has no conclusion
// section: the last section's bullets, else the first sentence of its
// paragraphs, else the section headings.
func (b *planBuilder) synthesizedConclusion(doc *Document) {
	var bullets []string
	source := "section headings"

	if n := len(doc.Sections); n > 0 {
		last := &doc.Sections[n-1]
		for _, block := range last.Blocks {
			if l, ok := block.(*BulletList); ok {
				bullets = append(bullets, l.Items...)
			}
		}
		if len(bullets) > 0 {
			source = fmt.Sprintf("bullets of %q", last.Heading)
		} else {
			for _, block := range last.Blocks {
				if p, ok := block.(*Paragraph); ok {
					if s := firstSentence(p.Text); s != "" {
						bullets = append(bullets, s)
					}
				}
			}
			if len(bullets) > 0 {
				source = fmt.Sprintf("paragraphs of %q", last.Heading)
			}
		}
	}

	if len(bullets) == 0 {
		for _, s := range doc.Sections {
			bullets = append(bullets, s.Heading)
		}
	}
	if len(bullets) == 0 {
		bullets = []string{doc.Title}
	}
	if len(bullets) > maxSynthesizedTakeaways {
		bullets = bullets[:maxSynthesizedTakeaways]
	}

	b.warn(WarnSynthesizedConclusion, 0, "no conclusion section found; takeaways synthesized from %s", source)
	b.emit(&ConclusionSlide{
		Title:        ConclusionHeading,
		Bullets:      bullets,
		CallToAction: CallToAction,
		Synthesized:  true,
	}, conclusionNotes(ConclusionHeading, bullets))
}

func conclusionNotes(heading string, bullets []string) string {
	var sb strings.Builder
	sb.WriteString(heading)
	for _, bullet := range bullets {
		sb.WriteString("\n- " + bullet)
	}
	return sb.String()
}

// firstSentence returns text up to and including the first sentence
// terminator that ends a word, or the whole text.
func firstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				return text[:i+1]
			}
		}
	}
	return text
}
