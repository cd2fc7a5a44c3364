package md2deck

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"go.uber.org/zap"
	"google.golang.org/api/slides/v1"

	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/gslides"
	"github.com/alnah/go-md2deck/internal/imagemeta"
)

// URLExt is the extension of the file holding the cloud deck address.
const URLExt = ".url"

// Fonts available in Google Slides. The CSS font stacks of the palettes only
// apply to the binary deck.
const (
	cloudFont     = "Arial"
	cloudCodeFont = "Courier New"
)

// Slide geometry in points. Width is fixed; height follows the aspect ratio.
const (
	pointsPerInch = 72.0
	cloudMargin   = 36.0
	headingTop    = 24.0
	headingHeight = 56.0
	bodyTop       = 92.0
	footerHeight  = 24.0
)

// CloudOptions configures the cloud deck target.
type CloudOptions struct {
	// Credentials overrides Options.Credentials when set.
	Credentials string
	RateLimit   gslides.RateLimitConfig
	Retry       gslides.RetryPolicy
}

// CloudRenderer publishes the plan as a Google Slides presentation.
type CloudRenderer struct {
	opts CloudOptions
	log  *zap.Logger
	// newAPI is swapped by tests.
	newAPI func(ctx context.Context, credentials string) (gslides.API, error)
}

var _ Renderer = (*CloudRenderer)(nil)

// NewCloudRenderer returns the cloud target renderer. A nil logger is replaced
// by a no-op logger.
func NewCloudRenderer(opts CloudOptions, log *zap.Logger) *CloudRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &CloudRenderer{opts: opts, log: log}
	r.newAPI = func(ctx context.Context, credentials string) (gslides.API, error) {
		return gslides.New(ctx, gslides.Config{
			Credentials: credentials,
			RateLimit:   opts.RateLimit,
			Retry:       opts.Retry,
			Logger:      log,
		})
	}
	return r
}

func (*CloudRenderer) Target() Target { return TargetCloud }

// Render creates a new presentation, fills it slide by slide, writes the
// speaker notes and records the URL in cloud/<stem>.url.
func (r *CloudRenderer) Render(ctx context.Context, job *RenderJob) (*Artifact, error) {
	creds := r.opts.Credentials
	if creds == "" {
		creds = job.Options.Credentials
	}

	api, err := r.newAPI(ctx, creds)
	if err != nil {
		return nil, r.wrap(err)
	}

	width, height, err := PageSize(job.Options.AspectRatio)
	if err != nil {
		return nil, err
	}
	geo := cloudGeometry{Width: width * pointsPerInch, Height: height * pointsPerInch}

	pres, err := api.CreatePresentation(ctx, job.Plan.Title, geo.Width, geo.Height)
	if err != nil {
		return nil, r.wrap(err)
	}
	r.log.Debug("presentation created", zap.String("id", pres.PresentationId))

	images, err := r.uploadImages(ctx, api, job.Plan)
	if err != nil {
		return nil, r.wrap(err)
	}

	reqs := buildCloudRequests(job.Plan, PaletteFor(job.Options.Theme), geo, images)
	for _, s := range pres.Slides {
		reqs = append(reqs, &slides.Request{DeleteObject: &slides.DeleteObjectRequest{ObjectId: s.ObjectId}})
	}
	if err := api.BatchUpdate(ctx, pres.PresentationId, reqs); err != nil {
		return nil, r.wrap(err)
	}

	filled, err := api.GetPresentation(ctx, pres.PresentationId)
	if err != nil {
		return nil, r.wrap(err)
	}
	if err := api.BatchUpdate(ctx, pres.PresentationId, notesRequests(job.Plan, filled)); err != nil {
		return nil, r.wrap(err)
	}

	location := gslides.PresentationURL(pres.PresentationId)
	path := filepath.Join(job.targetDir(TargetCloud), job.Stem+URLExt)
	if err := fileutil.WriteFileAtomic(path, []byte(location+"\n"), fileutil.FilePerm); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}

	return &Artifact{
		Target:     TargetCloud,
		Path:       path,
		Location:   location,
		SlideNotes: planNotes(job.Plan),
	}, nil
}

// wrap maps credential failures to RendererAuthError.
func (r *CloudRenderer) wrap(err error) error {
	if gslides.IsAuth(err) {
		return &RendererAuthError{Target: TargetCloud, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCloudRender, err)
}

// uploadImages returns a fetchable URL per local image source. Remote images
// keep their address. Formats Slides cannot embed are left out and rendered
// as captions.
func (r *CloudRenderer) uploadImages(ctx context.Context, api gslides.API, plan *SlidePlan) (map[string]string, error) {
	urls := make(map[string]string)
	for _, s := range plan.Slides {
		v, ok := s.Spec.(*VisualSlide)
		if !ok {
			continue
		}
		if _, done := urls[v.Source]; done {
			continue
		}
		if fileutil.IsURL(v.Source) {
			urls[v.Source] = v.Source
			continue
		}
		if info, err := imagemeta.Probe(v.Source); err != nil || info.Format == imagemeta.FormatSVG {
			r.log.Warn("image not embeddable in cloud deck", zap.String("path", v.Path))
			urls[v.Source] = ""
			continue
		}
		u, err := api.UploadImage(ctx, v.Source)
		if err != nil {
			return nil, err
		}
		urls[v.Source] = u
	}
	return urls, nil
}

// ---------------------------------------------------------------------------
// Request mapping
// ---------------------------------------------------------------------------

type cloudGeometry struct {
	Width, Height float64
}

func (g cloudGeometry) bodyWidth() float64  { return g.Width - 2*cloudMargin }
func (g cloudGeometry) bodyHeight() float64 { return g.Height - bodyTop - footerHeight - cloudMargin/2 }

// cloudSlideID is stable across runs so requests are easy to diff in tests.
func cloudSlideID(n int) string { return fmt.Sprintf("md2deck_s%03d", n) }

type box struct {
	X, Y, W, H float64
}

type textStyle struct {
	Size  float64
	Color string
	Font  string
	Bold  bool
}

// slideRequests accumulates the requests of one slide.
type slideRequests struct {
	id      string
	palette Palette
	reqs    []*slides.Request
	shapes  int
}

func (s *slideRequests) nextID() string {
	s.shapes++
	return s.id + "_e" + strconv.Itoa(s.shapes)
}

func buildCloudRequests(plan *SlidePlan, p Palette, geo cloudGeometry, images map[string]string) []*slides.Request {
	var reqs []*slides.Request
	total := len(plan.Slides)
	for i, s := range plan.Slides {
		sr := &slideRequests{id: cloudSlideID(i + 1), palette: p}
		sr.add(&slides.Request{CreateSlide: &slides.CreateSlideRequest{
			ObjectId:             sr.id,
			SlideLayoutReference: &slides.LayoutReference{PredefinedLayout: "BLANK"},
		}})
		sr.add(&slides.Request{UpdatePageProperties: &slides.UpdatePagePropertiesRequest{
			ObjectId: sr.id,
			PageProperties: &slides.PageProperties{
				PageBackgroundFill: &slides.PageBackgroundFill{SolidFill: &slides.SolidFill{Color: opaque(p.Background)}},
			},
			Fields: "pageBackgroundFill.solidFill.color",
		}})
		sr.layout(s.Spec, geo, images)
		sr.text(box{geo.Width - cloudMargin - 80, geo.Height - footerHeight - 8, 80, footerHeight},
			fmt.Sprintf("%d/%d", i+1, total), textStyle{Size: 10, Color: p.Accent, Font: cloudFont}, nil)
		reqs = append(reqs, sr.reqs...)
	}
	return reqs
}

func (s *slideRequests) add(r *slides.Request) { s.reqs = append(s.reqs, r) }

func (s *slideRequests) heading(text string, geo cloudGeometry) {
	s.text(box{cloudMargin, headingTop, geo.bodyWidth(), headingHeight}, text,
		textStyle{Size: 28, Color: s.palette.Primary, Font: cloudFont, Bold: true}, nil)
}

func (s *slideRequests) layout(spec SlideSpec, geo cloudGeometry, images map[string]string) {
	p := s.palette
	body := box{cloudMargin, bodyTop, geo.bodyWidth(), geo.bodyHeight()}

	switch v := spec.(type) {
	case *TitleSlide:
		s.text(box{cloudMargin, geo.Height * 0.28, geo.bodyWidth(), 90}, v.Title,
			textStyle{Size: 36, Color: p.Primary, Font: cloudFont, Bold: true}, nil)
		byline := v.Author
		if v.Date != "" {
			byline += " · " + v.Date
		}
		s.text(box{cloudMargin, geo.Height*0.28 + 100, geo.bodyWidth(), 32}, byline,
			textStyle{Size: 18, Color: p.Secondary, Font: cloudFont}, nil)
		if len(v.Tags) > 0 {
			s.text(box{cloudMargin, geo.Height*0.28 + 140, geo.bodyWidth(), 28}, strings.Join(v.Tags, "  ·  "),
				textStyle{Size: 12, Color: p.Accent, Font: cloudFont}, nil)
		}

	case *ContentSlide:
		heading := v.Section
		if v.Parts > 1 {
			heading = fmt.Sprintf("%s (%d/%d)", v.Section, v.Part, v.Parts)
		}
		s.heading(heading, geo)
		lines := make([]string, len(v.Runs))
		bullets := make([]bool, len(v.Runs))
		for i, r := range v.Runs {
			lines[i] = runText(r)
			bullets[i] = r.Kind == RunBullet
		}
		s.text(body, strings.Join(lines, "\n"), textStyle{Size: 16, Color: p.Text, Font: cloudFont}, bulletRanges(lines, bullets))

	case *CodeSlide:
		s.heading(v.Section, geo)
		label := codeLabel(v.Language)
		if v.Chunks > 1 {
			label += fmt.Sprintf("  %d/%d", v.Chunk, v.Chunks)
		}
		s.text(box{cloudMargin, bodyTop - 20, geo.bodyWidth(), 20}, label,
			textStyle{Size: 11, Color: p.Accent, Font: cloudFont, Bold: true}, nil)
		codeBox := body
		if v.Context != "" {
			codeBox.H -= 40
		}
		id := s.text(codeBox, numberedCode(v), textStyle{Size: 11, Color: p.Text, Font: cloudCodeFont}, nil)
		if id != "" {
			s.add(&slides.Request{UpdateShapeProperties: &slides.UpdateShapePropertiesRequest{
				ObjectId: id,
				ShapeProperties: &slides.ShapeProperties{
					ShapeBackgroundFill: &slides.ShapeBackgroundFill{SolidFill: &slides.SolidFill{Color: opaque(p.CodeBg)}},
				},
				Fields: "shapeBackgroundFill.solidFill.color",
			}})
		}
		if v.Context != "" {
			s.text(box{cloudMargin, codeBox.Y + codeBox.H + 4, geo.bodyWidth(), 36}, v.Context,
				textStyle{Size: 12, Color: p.Text, Font: cloudFont}, nil)
		}

	case *VisualSlide:
		s.heading(v.Section, geo)
		imgBox := body
		if v.Caption != "" {
			imgBox.H -= 32
		}
		if u := images[v.Source]; u != "" {
			s.image(u, v.Source, imgBox)
		} else {
			s.text(imgBox, "[image: "+v.Path+"]", textStyle{Size: 14, Color: p.Accent, Font: cloudFont}, nil)
		}
		if v.Caption != "" {
			s.text(box{cloudMargin, imgBox.Y + imgBox.H + 4, geo.bodyWidth(), 28}, v.Caption,
				textStyle{Size: 12, Color: p.Text, Font: cloudFont}, nil)
		}

	case *ConclusionSlide:
		s.heading(v.Title, geo)
		bullets := make([]bool, len(v.Bullets))
		for i := range bullets {
			bullets[i] = true
		}
		listBox := body
		listBox.H -= 40
		s.text(listBox, strings.Join(v.Bullets, "\n"), textStyle{Size: 18, Color: p.Text, Font: cloudFont}, bulletRanges(v.Bullets, bullets))
		s.text(box{cloudMargin, listBox.Y + listBox.H + 4, geo.bodyWidth(), 32}, v.CallToAction,
			textStyle{Size: 16, Color: p.Secondary, Font: cloudFont, Bold: true}, nil)
	}
}

// text adds a styled text box and returns its object ID. Empty text adds
// nothing: InsertText rejects empty strings.
func (s *slideRequests) text(b box, text string, st textStyle, bullets [][2]int64) string {
	if text == "" {
		return ""
	}
	id := s.nextID()
	s.add(&slides.Request{CreateShape: &slides.CreateShapeRequest{
		ObjectId:          id,
		ShapeType:         "TEXT_BOX",
		ElementProperties: elementProps(s.id, b),
	}})
	s.add(&slides.Request{InsertText: &slides.InsertTextRequest{ObjectId: id, Text: text}})
	s.add(&slides.Request{UpdateTextStyle: &slides.UpdateTextStyleRequest{
		ObjectId: id,
		Style: &slides.TextStyle{
			Bold:            st.Bold,
			FontFamily:      st.Font,
			FontSize:        &slides.Dimension{Magnitude: st.Size, Unit: "PT"},
			ForegroundColor: &slides.OptionalColor{OpaqueColor: opaque(st.Color)},
		},
		TextRange: &slides.Range{Type: "ALL"},
		Fields:    "bold,fontFamily,fontSize,foregroundColor",
	}})
	for _, r := range bullets {
		start, end := r[0], r[1]
		s.add(&slides.Request{CreateParagraphBullets: &slides.CreateParagraphBulletsRequest{
			ObjectId:     id,
			TextRange:    &slides.Range{Type: "FIXED_RANGE", StartIndex: &start, EndIndex: &end},
			BulletPreset: "BULLET_DISC_CIRCLE_SQUARE",
		}})
	}
	return id
}

// image adds a picture scaled to fit b, centered horizontally.
func (s *slideRequests) image(url, source string, b box) {
	w, h := b.W, b.H
	if info, err := imagemeta.Probe(source); err == nil && info.Width > 0 && info.Height > 0 {
		w, h = imagemeta.Fit(info.Width, info.Height, b.W, b.H)
	}
	s.add(&slides.Request{CreateImage: &slides.CreateImageRequest{
		ObjectId:          s.nextID(),
		Url:               url,
		ElementProperties: elementProps(s.id, box{b.X + (b.W-w)/2, b.Y, w, h}),
	}})
}

func elementProps(page string, b box) *slides.PageElementProperties {
	return &slides.PageElementProperties{
		PageObjectId: page,
		Size: &slides.Size{
			Width:  &slides.Dimension{Magnitude: b.W, Unit: "PT"},
			Height: &slides.Dimension{Magnitude: b.H, Unit: "PT"},
		},
		Transform: &slides.AffineTransform{ScaleX: 1, ScaleY: 1, TranslateX: b.X, TranslateY: b.Y, Unit: "PT"},
	}
}

// bulletRanges returns [start, end) UTF-16 offsets of each run of
// consecutive bullet lines once lines are joined with "\n".
func bulletRanges(lines []string, bullet []bool) [][2]int64 {
	var (
		out    [][2]int64
		offset int64
		open   = int64(-1)
		end    int64
	)
	for i, l := range lines {
		n := int64(len(utf16.Encode([]rune(l))))
		if bullet[i] {
			if open < 0 {
				open = offset
			}
			end = offset + n
		} else if open >= 0 {
			out = append(out, [2]int64{open, end})
			open = -1
		}
		offset += n + 1
	}
	if open >= 0 {
		out = append(out, [2]int64{open, end})
	}
	return out
}

// numberedCode prefixes each line with its position in the sample.
func numberedCode(c *CodeSlide) string {
	width := len(strconv.Itoa(c.EndLine()))
	lines := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = fmt.Sprintf("%*d  %s", width, c.StartLine+i, strings.ReplaceAll(l, "\t", "    "))
	}
	return strings.Join(lines, "\n")
}

// notesRequests writes each slide's notes into its speaker notes shape.
func notesRequests(plan *SlidePlan, pres *slides.Presentation) []*slides.Request {
	notesShape := make(map[string]string, len(pres.Slides))
	for _, pg := range pres.Slides {
		if pg.SlideProperties == nil || pg.SlideProperties.NotesPage == nil ||
			pg.SlideProperties.NotesPage.NotesProperties == nil {
			continue
		}
		notesShape[pg.ObjectId] = pg.SlideProperties.NotesPage.NotesProperties.SpeakerNotesObjectId
	}

	var reqs []*slides.Request
	for i, s := range plan.Slides {
		shape := notesShape[cloudSlideID(i+1)]
		if shape == "" || strings.TrimSpace(s.Notes) == "" {
			continue
		}
		reqs = append(reqs, &slides.Request{InsertText: &slides.InsertTextRequest{ObjectId: shape, Text: s.Notes}})
	}
	return reqs
}

// opaque converts "#RRGGBB" to a Slides color. Malformed input yields black.
func opaque(hex string) *slides.OpaqueColor {
	hex = strings.TrimPrefix(hex, "#")
	c := &slides.RgbColor{}
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			c.Red = float64(v>>16&0xff) / 255
			c.Green = float64(v>>8&0xff) / 255
			c.Blue = float64(v&0xff) / 255
		}
	}
	return &slides.OpaqueColor{RgbColor: c}
}
