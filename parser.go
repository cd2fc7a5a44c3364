package md2deck

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/yamlutil"
)

// DefaultAuthor is used when the metadata block names no author.
const DefaultAuthor = "Unknown"

// maxContextChars caps the prose excerpt attached to code samples.
const maxContextChars = 200

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// ParseOptions configures Parse.
type ParseOptions struct {
	// BaseDir resolves relative image paths. Empty means the working directory.
	BaseDir string
}

// Parse reads an article and returns its Document.
// A MalformedDocumentError is returned for a missing or broken metadata block,
// a blank title, an unterminated code fence, or an empty body. Everything else
// the parser tolerates is reported as a Warning.
func Parse(source []byte, opts ParseOptions) (*Document, []Warning, error) {
	source = bytes.TrimPrefix(source, []byte("\xef\xbb\xbf"))
	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	meta, body, bodyLine, err := splitFrontmatter(source)
	if err != nil {
		return nil, nil, err
	}

	doc, err := decodeMetadata(meta)
	if err != nil {
		return nil, nil, err
	}

	if err := scanFences(body, bodyLine); err != nil {
		return nil, nil, err
	}

	p := &parseState{
		src:      body,
		doc:      doc,
		lineBase: bodyLine,
		lines:    lineStarts(body),
		baseDir:  opts.BaseDir,
	}
	root := goldmark.DefaultParser().Parse(text.NewReader(body))
	p.walk(root)

	if len(doc.Sections) == 0 && doc.Abstract == "" {
		return nil, nil, &MalformedDocumentError{Line: bodyLine, Reason: "document has no content after the metadata block"}
	}

	return doc, p.warnings, nil
}

// ---------------------------------------------------------------------------
// Metadata
// ---------------------------------------------------------------------------

// splitFrontmatter separates the leading --- block from the body.
// bodyLine is the 1-based line number of the first body line.
func splitFrontmatter(src []byte) (meta, body []byte, bodyLine int, err error) {
	lines := strings.SplitAfter(string(src), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t\n") != "---" {
		return nil, nil, 0, &MalformedDocumentError{Line: 1, Reason: "missing metadata block (expected --- on the first line)"}
	}

	offset := len(lines[0])
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], " \t\n")
		if trimmed == "---" || trimmed == "..." {
			meta = src[len(lines[0]):offset]
			body = src[offset+len(lines[i]):]
			return meta, body, i + 2, nil
		}
		offset += len(lines[i])
	}

	return nil, nil, 0, &MalformedDocumentError{Line: 1, Reason: "metadata block is never closed"}
}

type frontmatter struct {
	Title       any `yaml:"title"`
	Author      any `yaml:"author"`
	Date        any `yaml:"date"`
	Tags        any `yaml:"tags"`
	Description any `yaml:"description"`
}

func decodeMetadata(meta []byte) (*Document, error) {
	var fm frontmatter
	if len(bytes.TrimSpace(meta)) > 0 {
		if err := yamlutil.Unmarshal(meta, &fm); err != nil {
			return nil, &MalformedDocumentError{Line: 2, Reason: fmt.Sprintf("metadata is not valid YAML: %v", err)}
		}
	}

	doc := &Document{
		Title:       normalizeSpace(scalarString(fm.Title)),
		Author:      normalizeSpace(authorString(fm.Author)),
		Date:        dateString(fm.Date),
		Tags:        tagList(fm.Tags),
		Description: normalizeSpace(scalarString(fm.Description)),
	}
	if doc.Title == "" {
		return nil, &MalformedDocumentError{Line: 1, Reason: "missing title metadata"}
	}
	if doc.Author == "" {
		doc.Author = DefaultAuthor
	}
	return doc, nil
}

func scalarString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// authorString accepts "Ada" or {name: Ada, email: ...}.
func authorString(v any) string {
	if m, ok := v.(map[string]any); ok {
		return scalarString(m["name"])
	}
	return scalarString(v)
}

func dateString(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(scalarString(v))
}

// tagList accepts a YAML sequence or a comma-separated string.
func tagList(v any) []string {
	var raw []string
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			raw = append(raw, scalarString(item))
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}

	var tags []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ---------------------------------------------------------------------------
// Fence scan
// ---------------------------------------------------------------------------

// scanFences fails on a fenced code block that is still open at EOF.
// The markdown parser silently closes such blocks, swallowing the rest of
// the article, so the check runs on raw lines first. A fence counts only at
// up to three columns past its container: blockquote markers are stripped
// and list item content indents are tracked, so backticks inside indented
// code are left alone. A block whose container ends closes with it.
func scanFences(body []byte, bodyLine int) error {
	var (
		open      bool
		openChar  byte
		openLen   int
		openLine  int
		openBase  int
		openDepth int
		lists     []int // content columns of the enclosing list items
		lastDepth int
	)

	for i, raw := range strings.Split(string(body), "\n") {
		depth, indent, rest := containerPrefix(raw)

		if open {
			if rest == "" || (depth >= openDepth && indent >= openBase) {
				ch, n := fenceRun(rest)
				if n > 0 && ch == openChar && n >= openLen && indent-openBase <= 3 &&
					strings.TrimSpace(rest[n:]) == "" {
					open = false
				}
				continue
			}
			open = false
		}
		if rest == "" {
			continue
		}

		if depth != lastDepth {
			lists, lastDepth = lists[:0], depth
		}
		for len(lists) > 0 && indent < lists[len(lists)-1] {
			lists = lists[:len(lists)-1]
		}
		base := 0
		if len(lists) > 0 {
			base = lists[len(lists)-1]
		}

		if ch, n := fenceRun(rest); n >= 3 && indent-base <= 3 {
			if ch == '`' && strings.ContainsRune(rest[n:], '`') {
				continue // inline code such as ```x```
			}
			open, openChar, openLen, openLine, openBase, openDepth = true, ch, n, bodyLine+i, base, depth
			continue
		}
		if indent-base <= 3 {
			if w, ok := listMarker(rest); ok {
				lists = append(lists, indent+w)
			}
		}
	}

	if open {
		return &MalformedDocumentError{Line: openLine, Reason: "code block is opened but never closed"}
	}
	return nil
}

// containerPrefix strips blockquote markers from line and returns the
// quote depth, the indent column of what remains and the remaining text.
// A whitespace-only line yields an empty rest.
func containerPrefix(line string) (depth, indent int, rest string) {
	line = strings.TrimRight(line, "\r")
	for {
		col, j := 0, 0
		for ; j < len(line) && (line[j] == ' ' || line[j] == '\t'); j++ {
			if line[j] == '\t' {
				col += 4 - col%4
			} else {
				col++
			}
		}
		if j < len(line) && line[j] == '>' && col <= 3 {
			depth++
			line = strings.TrimPrefix(line[j+1:], " ")
			continue
		}
		return depth, col, strings.TrimRight(line[j:], " \t")
	}
}

// listMarker reports the width of a list item marker plus its trailing
// spaces, which is where the item's content starts.
func listMarker(s string) (int, bool) {
	i := 0
	switch {
	case s[0] == '-' || s[0] == '*' || s[0] == '+':
		i = 1
	default:
		for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 || i == len(s) || (s[i] != '.' && s[i] != ')') {
			return 0, false
		}
		i++
	}
	if i == len(s) {
		return i + 1, true
	}
	if s[i] != ' ' && s[i] != '\t' {
		return 0, false
	}
	sp := 0
	for i+sp < len(s) && (s[i+sp] == ' ' || s[i+sp] == '\t') {
		sp++
	}
	if sp > 4 {
		sp = 1
	}
	return i + sp, true
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

// ---------------------------------------------------------------------------
// Body walk
// ---------------------------------------------------------------------------

type parseState struct {
	src      []byte
	doc      *Document
	lineBase int
	lines    []int
	baseDir  string

	current   *Section
	lastLevel int
	prose     []string // paragraph text of the current section, for code context
	abstract  []string
	warnings  []Warning
	sawBlock  bool
}

func (p *parseState) warn(code WarningCode, line int, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{
		Stage:   StageParser,
		Code:    code,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parseState) walk(root ast.Node) {
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			p.heading(n)
		case *ast.Paragraph, *ast.TextBlock:
			p.paragraph(n)
		case *ast.FencedCodeBlock:
			p.fencedCode(n)
		case *ast.CodeBlock:
			p.indentedCode(n)
		case *ast.List:
			p.list(n)
		case *ast.Blockquote:
			p.walk(n)
		case *ast.HTMLBlock:
			p.warn(WarnSkippedBlock, p.line(n), "raw HTML block skipped")
		case *ast.ThematicBreak:
		default:
			p.warn(WarnSkippedBlock, p.line(n), "unsupported %s block skipped", n.Kind())
		}
		p.sawBlock = true
	}

	p.flushAbstract()
}

func (p *parseState) heading(h *ast.Heading) {
	title := inlineText(h, p.src, nil)
	line := p.line(h)

	if h.Level == 1 && !p.sawBlock && strings.EqualFold(title, p.doc.Title) {
		return // repeats the metadata title
	}

	if h.Level <= 2 {
		if h.Level == 1 {
			p.warn(WarnHeadingLevel, line, "level-1 heading %q inside the body is treated as a section", title)
		}
		p.openSection(title, h.Level, line)
		p.lastLevel = h.Level
		return
	}

	if p.lastLevel > 0 && h.Level > p.lastLevel+1 {
		p.warn(WarnHeadingLevel, line, "heading level jumps from H%d to H%d at %q", p.lastLevel, h.Level, title)
	}
	p.lastLevel = h.Level
	if title != "" {
		p.add(&Paragraph{Text: title}, line)
	}
}

func (p *parseState) openSection(heading string, level, line int) {
	p.flushAbstract()
	p.doc.Sections = append(p.doc.Sections, Section{Heading: heading, Level: level, Line: line})
	p.current = &p.doc.Sections[len(p.doc.Sections)-1]
	p.prose = nil
}

// add appends a block to the current section, opening an implicit one
// when content appears before the first heading.
func (p *parseState) add(b Block, line int) {
	if p.current == nil {
		p.warn(WarnContentBeforeSection, line, "%s before the first section is grouped under the title", b.Kind())
		p.openSection(p.doc.Title, 2, line)
	}
	p.current.Blocks = append(p.current.Blocks, b)
	if para, ok := b.(*Paragraph); ok {
		p.prose = append(p.prose, para.Text)
	}
}

func (p *parseState) flushAbstract() {
	if len(p.abstract) == 0 {
		return
	}
	if p.doc.Abstract != "" {
		p.abstract = append([]string{p.doc.Abstract}, p.abstract...)
	}
	p.doc.Abstract = strings.Join(p.abstract, "\n\n")
	p.abstract = nil
}

func (p *parseState) paragraph(n ast.Node) {
	var images []*ast.Image
	txt := inlineText(n, p.src, &images)
	line := p.line(n)

	if txt != "" {
		if p.current == nil {
			p.abstract = append(p.abstract, txt)
		} else {
			p.add(&Paragraph{Text: txt}, line)
		}
	}
	for _, img := range images {
		p.image(img, line)
	}
}

func (p *parseState) image(img *ast.Image, line int) {
	dest := string(img.Destination)
	caption := inlineText(img, p.src, nil)
	if caption == "" {
		caption = normalizeSpace(string(img.Title))
	}

	ref := &ImageRef{
		Path:     dest,
		Caption:  caption,
		Resolved: dest,
		Remote:   fileutil.IsURL(dest),
		Diagram:  isDiagramPath(dest),
		Line:     line,
	}

	if !ref.Remote {
		resolved := dest
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(p.baseDir, filepath.FromSlash(dest))
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		ref.Resolved = resolved
		if _, err := os.Stat(resolved); err != nil {
			ref.Missing = true
			p.warn(WarnImageNotFound, line, "image %q not found", dest)
		}
	}

	p.add(ref, line)
}

func isDiagramPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "mermaid") || strings.Contains(lower, "plantuml")
}

func (p *parseState) fencedCode(n *ast.FencedCodeBlock) {
	line := p.line(n)
	if n.Info != nil {
		line = p.offsetLine(n.Info.Segment.Start)
	}

	lang := strings.TrimSpace(string(n.Language(p.src)))
	if lang == "" {
		p.warn(WarnMissingLanguage, line, "code block has no language tag; rendered as plain text")
	}
	p.add(&CodeSample{
		Language: lang,
		Lines:    codeLines(n, p.src),
		Context:  p.codeContext(),
		Line:     line,
	}, line)
}

func (p *parseState) indentedCode(n *ast.CodeBlock) {
	line := p.line(n)
	p.warn(WarnMissingLanguage, line, "indented code block has no language tag; rendered as plain text")
	p.add(&CodeSample{
		Lines:   codeLines(n, p.src),
		Context: p.codeContext(),
		Line:    line,
	}, line)
}

func codeLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	lines := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		lines = append(lines, strings.TrimRight(string(seg.Value(src)), "\n"))
	}
	return lines
}

// codeContext returns the last two sentences of the section prose so far.
func (p *parseState) codeContext() string {
	if len(p.prose) == 0 {
		return ""
	}
	var sentences []string
	for _, s := range sentenceSplit.Split(strings.Join(p.prose, " "), -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 2 {
		sentences = sentences[len(sentences)-2:]
	}
	return truncateRunes(strings.Join(sentences, ". "), maxContextChars)
}

func (p *parseState) list(l *ast.List) {
	cur := &BulletList{Ordered: l.IsOrdered()}
	var images []*ast.Image
	line := p.line(l)

	flush := func() {
		if len(cur.Items) > 0 {
			p.add(cur, line)
		}
		cur = &BulletList{Ordered: l.IsOrdered()}
	}

	var walkItems func(list *ast.List, nested bool)
	walkItems = func(list *ast.List, nested bool) {
		for li := list.FirstChild(); li != nil; li = li.NextSibling() {
			var parts []string
			imagesBefore := len(images)
			emitted := false
			emit := func() {
				if txt := normalizeSpace(strings.Join(parts, " ")); txt != "" {
					cur.Items = append(cur.Items, txt)
					emitted = true
				}
				parts = nil
			}

			for c := li.FirstChild(); c != nil; c = c.NextSibling() {
				switch c := c.(type) {
				case *ast.List:
					emit()
					walkItems(c, true)
					emitted = true
				case *ast.FencedCodeBlock:
					emit()
					flush()
					p.fencedCode(c)
					emitted = true
				case *ast.CodeBlock:
					emit()
					flush()
					p.indentedCode(c)
					emitted = true
				case *ast.HTMLBlock:
					p.warn(WarnSkippedBlock, p.line(c), "raw HTML in list item skipped")
				default:
					parts = append(parts, blockText(c, p.src, &images))
				}
			}
			emit()
			if len(images) > imagesBefore {
				emitted = true
			}

			if !emitted {
				if li.NextSibling() == nil && !nested {
					p.warn(WarnEmptyListItem, p.line(li), "trailing empty list item dropped")
				} else {
					p.warn(WarnEmptyListItem, p.line(li), "empty list item dropped")
				}
			}
		}
	}

	walkItems(l, false)
	flush()

	for _, img := range images {
		p.image(img, line)
	}
}

// blockText flattens a block's inline content, descending into containers.
func blockText(n ast.Node, src []byte, images *[]*ast.Image) string {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return inlineText(n, src, images)
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src, images); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// inlineText extracts plain text from inline children. Emphasis markers are
// dropped, link and code span text is kept, images are collected separately.
func inlineText(n ast.Node, src []byte, images *[]*ast.Image) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				b.Write(c.Segment.Value(src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(c.Value)
			case *ast.Image:
				if images != nil {
					*images = append(*images, c)
				}
			case *ast.AutoLink:
				b.Write(c.Label(src))
			case *ast.RawHTML:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}

// ---------------------------------------------------------------------------
// Positions and text helpers
// ---------------------------------------------------------------------------

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (p *parseState) offsetLine(offset int) int {
	idx := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	return p.lineBase + idx
}

// line returns the 1-based source line of a block node, or the body's first
// line when the node carries no position.
func (p *parseState) line(n ast.Node) int {
	if off := firstOffset(n); off >= 0 {
		return p.offsetLine(off)
	}
	return p.lineBase
}

func firstOffset(n ast.Node) int {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := firstOffset(c); off >= 0 {
			return off
		}
	}
	return -1
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit]))
}
