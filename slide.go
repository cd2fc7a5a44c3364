package md2deck

import "github.com/alnah/go-md2deck/internal/ledger"

// SlideKind names a SlideSpec variant.
type SlideKind string

const (
	SlideTitle      SlideKind = "title"
	SlideContent    SlideKind = "content"
	SlideCode       SlideKind = "code"
	SlideVisual     SlideKind = "visual"
	SlideConclusion SlideKind = "conclusion"
)

// SlideSpec is the closed set of slide layouts the planner emits:
// *TitleSlide, *ContentSlide, *CodeSlide, *VisualSlide and *ConclusionSlide.
// Renderers switch on the concrete type.
type SlideSpec interface {
	Kind() SlideKind
	// Heading is the line shown at the top of the slide.
	Heading() string
	slide()
}

// TitleSlide opens the deck.
type TitleSlide struct {
	Title  string
	Author string
	Date   string
	Tags   []string
}

// RunKind distinguishes paragraph runs from bullet runs.
type RunKind string

const (
	RunParagraph RunKind = "paragraph"
	RunBullet    RunKind = "bullet"
)

// TextRun is one paragraph or bullet item, or a word-chunk of one.
// Continued marks the tail of a run started on an earlier slide;
// Continues marks a run that carries on in the next slide.
type TextRun struct {
	Kind      RunKind
	Text      string
	Continued bool
	Continues bool
}

// ContentSlide holds text runs of one section. Part and Parts number the
// slides a section was split into (1-based).
type ContentSlide struct {
	Section string
	Runs    []TextRun
	Part    int
	Parts   int
}

// CodeSlide holds one line-count chunk of a code sample.
type CodeSlide struct {
	Section   string
	Language  string // empty for untagged code
	Lines     []string
	StartLine int // 1-based line of Lines[0] within the sample
	Chunk     int // 1-based
	Chunks    int
	Context   string
}

// VisualSlide shows one image.
type VisualSlide struct {
	Section string
	Path    string // as written in the source
	Source  string // resolved path or URL
	Caption string
	Diagram bool
}

// ConclusionSlide closes the deck.
type ConclusionSlide struct {
	Title        string
	Bullets      []string
	CallToAction string
	Synthesized  bool
}

func (*TitleSlide) Kind() SlideKind      { return SlideTitle }
func (*ContentSlide) Kind() SlideKind    { return SlideContent }
func (*CodeSlide) Kind() SlideKind       { return SlideCode }
func (*VisualSlide) Kind() SlideKind     { return SlideVisual }
func (*ConclusionSlide) Kind() SlideKind { return SlideConclusion }

func (s *TitleSlide) Heading() string      { return s.Title }
func (s *ContentSlide) Heading() string    { return s.Section }
func (s *CodeSlide) Heading() string       { return s.Section }
func (s *VisualSlide) Heading() string     { return s.Section }
func (s *ConclusionSlide) Heading() string { return s.Title }

func (*TitleSlide) slide()      {}
func (*ContentSlide) slide()    {}
func (*CodeSlide) slide()       {}
func (*VisualSlide) slide()     {}
func (*ConclusionSlide) slide() {}

var (
	_ SlideSpec = (*TitleSlide)(nil)
	_ SlideSpec = (*ContentSlide)(nil)
	_ SlideSpec = (*CodeSlide)(nil)
	_ SlideSpec = (*VisualSlide)(nil)
	_ SlideSpec = (*ConclusionSlide)(nil)
)

// Words returns the whitespace token count of the slide's runs.
func (s *ContentSlide) Words() int {
	n := 0
	for _, r := range s.Runs {
		n += countWords(r.Text)
	}
	return n
}

// EndLine returns the 1-based sample line of the chunk's last line.
func (s *CodeSlide) EndLine() int {
	return s.StartLine + len(s.Lines) - 1
}

// Slide pairs a layout with its speaker notes: the original, unsplit text
// of every block the slide shows.
type Slide struct {
	Spec  SlideSpec
	Notes string
}

// SlidePlan is the ordered, renderer-agnostic result of planning.
type SlidePlan struct {
	Title            string
	Slides           []Slide
	MaxWordsPerSlide int // effective budget after re-planning
	MaxCodeLines     int
}

// PlanStats counts slides per kind. It is stored verbatim in ledger records.
type PlanStats = ledger.Stats

// Stats summarizes the plan for the ledger and the CLI.
func (p *SlidePlan) Stats() PlanStats {
	st := PlanStats{Slides: len(p.Slides), MaxWords: p.MaxWordsPerSlide}
	for _, s := range p.Slides {
		switch spec := s.Spec.(type) {
		case *ContentSlide:
			st.Content++
			st.Words += spec.Words()
		case *CodeSlide:
			st.Code++
			st.CodeLines += len(spec.Lines)
		case *VisualSlide:
			st.Visual++
		case *ConclusionSlide:
			st.Conclusions++
		}
	}
	return st
}
