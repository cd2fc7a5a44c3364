package md2deck

import (
	"testing"

	"github.com/alnah/go-md2deck/internal/ledger"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	cfg := DefaultOptions().withDefaults("/articles/post.md").snapshot()
	base := Fingerprint(scenarioDocument(), cfg)

	if len(base) != 64 {
		t.Fatalf("fingerprint %q is not a hex SHA-256", base)
	}
	if again := Fingerprint(scenarioDocument(), cfg); again != base {
		t.Error("fingerprint is not deterministic")
	}

	tests := []struct {
		name   string
		doc    func() *Document
		cfg    func(c ledger.Config) ledger.Config
		change bool
	}{
		{
			name: "line numbers ignored",
			doc: func() *Document {
				d := scenarioDocument()
				d.Sections[0].Line += 7
				return d
			},
			change: false,
		},
		{
			name: "paragraph edited",
			doc: func() *Document {
				d := scenarioDocument()
				d.Sections[0].Blocks = append(d.Sections[0].Blocks, &Paragraph{Text: "extra"})
				return d
			},
			change: true,
		},
		{
			name: "image went missing",
			doc: func() *Document {
				d := scenarioDocument()
				d.Sections = append(d.Sections, Section{Heading: "Pics", Blocks: []Block{&ImageRef{Path: "a.png", Resolved: "/a.png", Missing: true}}})
				return d
			},
			change: true,
		},
		{
			name:   "theme changed",
			cfg:    func(c ledger.Config) ledger.Config { c.Theme = ThemeDark; return c },
			change: true,
		},
		{
			name:   "output dir changed",
			cfg:    func(c ledger.Config) ledger.Config { c.OutputDir = "/elsewhere"; return c },
			change: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, c := scenarioDocument(), cfg
			if tt.doc != nil {
				doc = tt.doc()
			}
			if tt.cfg != nil {
				c = tt.cfg(cfg)
			}
			if changed := Fingerprint(doc, c) != base; changed != tt.change {
				t.Errorf("changed = %v, want %v", changed, tt.change)
			}
		})
	}
}
