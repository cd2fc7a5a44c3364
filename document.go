package md2deck

// Document is a parsed source article. It is not modified after Parse returns.
type Document struct {
	Title       string
	Author      string
	Date        string // raw frontmatter value
	Tags        []string
	Description string
	Abstract    string // paragraphs before the first section
	Sections    []Section
}

// Section is one heading-delimited unit. Sections never nest.
type Section struct {
	Heading string
	Level   int
	Line    int
	Blocks  []Block
}

// BlockKind names a Block variant.
type BlockKind string

const (
	KindParagraph  BlockKind = "paragraph"
	KindBulletList BlockKind = "bullets"
	KindCodeSample BlockKind = "code"
	KindImageRef   BlockKind = "image"
)

// Block is the closed set of content blocks a Section holds:
// *Paragraph, *BulletList, *CodeSample and *ImageRef.
type Block interface {
	Kind() BlockKind
	block()
}

// Paragraph is whitespace-normalized prose.
type Paragraph struct {
	Text string
}

// BulletList holds list items in source order. Nested items are flattened.
type BulletList struct {
	Items   []string
	Ordered bool
}

// CodeSample is a fenced code region.
type CodeSample struct {
	Language string // empty when the fence had no tag
	Lines    []string
	Context  string // closing sentences of the prose before the block
	Line     int
}

// ImageRef is an image reference as written in the source.
type ImageRef struct {
	Path     string
	Caption  string
	Resolved string // absolute path for local images, Path for remote ones
	Missing  bool
	Remote   bool
	Diagram  bool // path mentions mermaid or plantuml
	Line     int
}

func (*Paragraph) Kind() BlockKind  { return KindParagraph }
func (*BulletList) Kind() BlockKind { return KindBulletList }
func (*CodeSample) Kind() BlockKind { return KindCodeSample }
func (*ImageRef) Kind() BlockKind   { return KindImageRef }

func (*Paragraph) block()  {}
func (*BulletList) block() {}
func (*CodeSample) block() {}
func (*ImageRef) block()   {}

// Compile-time checks that every variant is a Block.
var (
	_ Block = (*Paragraph)(nil)
	_ Block = (*BulletList)(nil)
	_ Block = (*CodeSample)(nil)
	_ Block = (*ImageRef)(nil)
)

// WordCount returns the whitespace-delimited token count of all paragraph and
// bullet text in the document, abstract included.
func (d *Document) WordCount() int {
	n := countWords(d.Abstract)
	for _, s := range d.Sections {
		for _, b := range s.Blocks {
			switch b := b.(type) {
			case *Paragraph:
				n += countWords(b.Text)
			case *BulletList:
				for _, item := range b.Items {
					n += countWords(item)
				}
			}
		}
	}
	return n
}
