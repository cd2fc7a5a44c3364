package md2deck

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alnah/go-md2deck/internal/assets"
	"github.com/alnah/go-md2deck/internal/fileutil"
)

// Binary deck file names under <out>/binary.
const (
	DeckHTMLExt   = ".html"
	DeckPDFExt    = ".pdf"
	slideNotesDir = "notes"
)

// BinaryRenderer writes a self-contained HTML deck and prints it to PDF.
type BinaryRenderer struct {
	loader  assets.AssetLoader
	printer pdfPrinter
}

var _ Renderer = (*BinaryRenderer)(nil)

// NewBinaryRenderer returns a renderer backed by headless Chrome. A nil
// loader uses the embedded themes.
func NewBinaryRenderer(loader assets.AssetLoader, timeout time.Duration) *BinaryRenderer {
	return newBinaryRenderer(loader, newRodPrinter(timeout))
}

func newBinaryRenderer(loader assets.AssetLoader, printer pdfPrinter) *BinaryRenderer {
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	return &BinaryRenderer{loader: loader, printer: printer}
}

func (*BinaryRenderer) Target() Target { return TargetBinary }

// Render writes binary/<stem>.html, binary/<stem>.pdf and one
// binary/notes/slide-NNN.txt per slide.
func (r *BinaryRenderer) Render(ctx context.Context, job *RenderJob) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deck, err := buildDeck(job, r.loader)
	if err != nil {
		return nil, err
	}

	dir := job.targetDir(TargetBinary)
	htmlPath := filepath.Join(dir, job.Stem+DeckHTMLExt)
	if err := fileutil.WriteFileAtomic(htmlPath, deck, fileutil.FilePerm); err != nil {
		return nil, &IOError{Op: "write", Path: htmlPath, Err: err}
	}

	width, height, err := PageSize(job.Options.AspectRatio)
	if err != nil {
		return nil, err
	}
	pdf, err := r.printer.PrintFile(ctx, htmlPath, width, height)
	if err != nil {
		return nil, err
	}
	pdfPath := filepath.Join(dir, job.Stem+DeckPDFExt)
	if err := fileutil.WriteFileAtomic(pdfPath, pdf, fileutil.FilePerm); err != nil {
		return nil, &IOError{Op: "write", Path: pdfPath, Err: err}
	}

	notes := planNotes(job.Plan)
	for i, n := range notes {
		p := filepath.Join(dir, slideNotesDir, slideNotesName(i+1))
		if err := fileutil.WriteFileAtomic(p, []byte(n), fileutil.FilePerm); err != nil {
			return nil, &IOError{Op: "write", Path: p, Err: err}
		}
	}

	return &Artifact{Target: TargetBinary, Path: pdfPath, SlideNotes: notes}, nil
}

// Close releases the browser.
func (r *BinaryRenderer) Close() error {
	if r.printer == nil {
		return nil
	}
	return r.printer.Close()
}

func slideNotesName(n int) string {
	return fmt.Sprintf("slide-%03d.txt", n)
}
