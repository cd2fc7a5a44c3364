package md2deck

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2deck/internal/fileutil"
)

// NotesExt is the extension of the speaker notes document.
const NotesExt = ".txt"

// NotesRenderer writes every slide's speaker notes to one ordered text file.
type NotesRenderer struct{}

var _ Renderer = NotesRenderer{}

// NewNotesRenderer returns the notes target renderer.
func NewNotesRenderer() NotesRenderer { return NotesRenderer{} }

func (NotesRenderer) Target() Target { return TargetNotes }

// Render writes notes/<stem>.txt.
func (NotesRenderer) Render(ctx context.Context, job *RenderJob) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(job.targetDir(TargetNotes), job.Stem+NotesExt)
	if err := fileutil.WriteFileAtomic(path, []byte(FormatNotes(job.Plan)), fileutil.FilePerm); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}

	return &Artifact{
		Target:     TargetNotes,
		Path:       path,
		SlideNotes: planNotes(job.Plan),
	}, nil
}

// FormatNotes renders the notes document: one header per slide followed by
// that slide's notes, slides separated by a blank line.
func FormatNotes(plan *SlidePlan) string {
	var b strings.Builder
	total := len(plan.Slides)
	for i, s := range plan.Slides {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(notesHeader(i+1, total, s.Spec))
		b.WriteString("\n")
		if notes := strings.TrimSpace(s.Notes); notes != "" {
			b.WriteString(notes)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func notesHeader(n, total int, spec SlideSpec) string {
	return fmt.Sprintf("=== Slide %d/%d: %s | %s ===", n, total, strings.ToUpper(string(spec.Kind())), spec.Heading())
}

func planNotes(plan *SlidePlan) []string {
	notes := make([]string, len(plan.Slides))
	for i, s := range plan.Slides {
		notes[i] = s.Notes
	}
	return notes
}
