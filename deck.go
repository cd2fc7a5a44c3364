package md2deck

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/alnah/go-md2deck/internal/assets"
	"github.com/alnah/go-md2deck/internal/imagemeta"
)

const (
	continuationMark = "…"
	plainCodeLabel   = "TEXT"
)

// deckData feeds templates/deck.html.
type deckData struct {
	Title  string
	Theme  string
	CSS    template.CSS
	Total  int
	Slides []deckSlide
}

// deckSlide flattens every SlideSpec variant; the template switches on Kind.
type deckSlide struct {
	Number  int
	Kind    SlideKind
	Heading string

	// title
	Author string
	Date   string
	Tags   []string

	// content
	Groups []runGroup
	Part   int
	Parts  int

	// code
	CodeLabel string
	CodeHTML  template.HTML
	Context   string
	Chunk     int
	Chunks    int

	// visual
	ImageSrc template.URL
	Caption  string
	Layout   string
	Diagram  bool

	// conclusion
	Bullets      []string
	CallToAction string
}

// runGroup is a run of consecutive bullets or consecutive paragraphs.
type runGroup struct {
	Bullets bool
	Runs    []string
}

// buildDeck renders the plan to a standalone HTML document.
func buildDeck(job *RenderJob, loader assets.AssetLoader) ([]byte, error) {
	themeCSS, err := loader.LoadStyle(job.Options.Theme)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) || errors.Is(err, assets.ErrInvalidAssetName) || errors.Is(err, ErrThemeNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, job.Options.Theme)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	src, err := loader.LoadTemplate(assets.DeckTemplateName)
	if err != nil {
		if errors.Is(err, ErrDeckTemplate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDeckTemplate, err)
	}
	tmpl, err := template.New(assets.DeckTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeckTemplate, err)
	}

	width, height, err := PageSize(job.Options.AspectRatio)
	if err != nil {
		return nil, err
	}

	palette := PaletteFor(job.Options.Theme)
	style := codeStyle(palette)

	data := deckData{
		Title: job.Plan.Title,
		Theme: job.Options.Theme,
		CSS:   template.CSS(buildPaletteCSS(palette) + buildPageCSS(width, height) + themeCSS),
		Total: len(job.Plan.Slides),
	}
	for i, s := range job.Plan.Slides {
		ds, err := deckSlideFor(i+1, s.Spec, style)
		if err != nil {
			return nil, err
		}
		data.Slides = append(data.Slides, ds)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeckTemplate, err)
	}
	return buf.Bytes(), nil
}

func deckSlideFor(n int, spec SlideSpec, style *chroma.Style) (deckSlide, error) {
	ds := deckSlide{Number: n, Kind: spec.Kind(), Heading: spec.Heading()}

	switch s := spec.(type) {
	case *TitleSlide:
		ds.Author, ds.Date, ds.Tags = s.Author, s.Date, s.Tags
	case *ContentSlide:
		ds.Groups = groupRuns(s.Runs)
		ds.Part, ds.Parts = s.Part, s.Parts
	case *CodeSlide:
		code, err := highlight(s, style)
		if err != nil {
			return ds, err
		}
		ds.CodeHTML = code
		ds.CodeLabel = codeLabel(s.Language)
		ds.Context = s.Context
		ds.Chunk, ds.Chunks = s.Chunk, s.Chunks
	case *VisualSlide:
		ds.ImageSrc = imageSource(s.Source)
		ds.Caption = s.Caption
		ds.Diagram = s.Diagram
		ds.Layout = imageLayout(s.Source)
	case *ConclusionSlide:
		ds.Bullets = s.Bullets
		ds.CallToAction = s.CallToAction
	}
	return ds, nil
}

func groupRuns(runs []TextRun) []runGroup {
	var groups []runGroup
	for _, r := range runs {
		bullet := r.Kind == RunBullet
		if len(groups) == 0 || groups[len(groups)-1].Bullets != bullet {
			groups = append(groups, runGroup{Bullets: bullet})
		}
		g := &groups[len(groups)-1]
		g.Runs = append(g.Runs, runText(r))
	}
	return groups
}

// runText marks split runs with an ellipsis on the cut side.
func runText(r TextRun) string {
	text := r.Text
	if r.Continued {
		text = continuationMark + " " + text
	}
	if r.Continues {
		text += " " + continuationMark
	}
	return text
}

func codeLabel(language string) string {
	if language == "" {
		return "Code: " + plainCodeLabel
	}
	return "Code: " + strings.ToUpper(language)
}

// codeStyle is a neutral style derived from the palette: one text color,
// bold keywords, italic comments.
func codeStyle(p Palette) *chroma.Style {
	return chroma.MustNewStyle("md2deck", chroma.StyleEntries{
		chroma.Background:      p.Text + " bg:" + p.CodeBg,
		chroma.LineNumbers:     p.Accent,
		chroma.Keyword:         "bold",
		chroma.Comment:         "italic",
		chroma.CommentPreproc:  "noitalic",
		chroma.GenericEmph:     "italic",
		chroma.GenericStrong:   "bold",
		chroma.NameBuiltin:     "bold",
		chroma.Error:           p.Secondary,
		chroma.GenericDeleted:  p.Secondary,
		chroma.GenericInserted: p.Accent,
	})
}

// highlight renders one code chunk with line numbers continuing from the
// chunk's position in the sample.
func highlight(s *CodeSlide, style *chroma.Style) (template.HTML, error) {
	lexer := lexers.Get(s.Language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, strings.Join(s.Lines, "\n")+"\n")
	if err != nil {
		return "", fmt.Errorf("%w: highlighting %s code: %v", ErrDeckTemplate, s.Language, err)
	}

	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(true),
		chromahtml.BaseLineNumber(s.StartLine),
		chromahtml.TabWidth(4),
	)
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", fmt.Errorf("%w: highlighting %s code: %v", ErrDeckTemplate, s.Language, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- chroma escapes token text
}

// imageSource turns a resolved local path into a file URL. Remote sources
// pass through unchanged.
func imageSource(src string) template.URL {
	if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return template.URL(src) // #nosec G203 -- URL written by the article author
	}
	p := filepath.ToSlash(src)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // windows drive letters
	}
	u := url.URL{Scheme: "file", Path: p}
	return template.URL(u.String()) // #nosec G203 -- built from a local path
}

func imageLayout(src string) string {
	if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return imagemeta.LayoutWide
	}
	info, err := imagemeta.Probe(src)
	if err != nil {
		return imagemeta.LayoutWide
	}
	return info.Layout()
}
