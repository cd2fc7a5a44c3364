package md2deck

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/alnah/go-md2deck/internal/ledger"
)

// fingerprintVersion changes whenever the canonical form below changes, so
// records written by an older layout never match.
const fingerprintVersion = 2

type canonicalBlock struct {
	Kind     BlockKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Items    []string  `json:"items,omitempty"`
	Ordered  bool      `json:"ordered,omitempty"`
	Language string    `json:"language,omitempty"`
	Lines    []string  `json:"lines,omitempty"`
	Context  string    `json:"context,omitempty"`
	Path     string    `json:"path,omitempty"`
	Caption  string    `json:"caption,omitempty"`
	Missing  bool      `json:"missing,omitempty"`
}

type canonicalSection struct {
	Heading string           `json:"heading"`
	Blocks  []canonicalBlock `json:"blocks"`
}

type canonicalInput struct {
	Version     int                `json:"version"`
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	Date        string             `json:"date"`
	Tags        []string           `json:"tags"`
	Description string             `json:"description"`
	Abstract    string             `json:"abstract"`
	Sections    []canonicalSection `json:"sections"`
	Config      ledger.Config      `json:"config"`
}

// Fingerprint hashes the normalized document together with the
// configuration snapshot. Source line numbers are excluded: moving text
// around blank lines does not change the deck.
func Fingerprint(doc *Document, cfg ledger.Config) string {
	in := canonicalInput{
		Version:     fingerprintVersion,
		Title:       doc.Title,
		Author:      doc.Author,
		Date:        doc.Date,
		Tags:        doc.Tags,
		Description: doc.Description,
		Abstract:    doc.Abstract,
		Config:      cfg,
	}
	for _, s := range doc.Sections {
		cs := canonicalSection{Heading: s.Heading, Blocks: make([]canonicalBlock, 0, len(s.Blocks))}
		for _, b := range s.Blocks {
			cs.Blocks = append(cs.Blocks, canonicalize(b))
		}
		in.Sections = append(in.Sections, cs)
	}

	// Marshal cannot fail: the input holds only strings, ints, bools and slices.
	data, _ := json.Marshal(in)
	return checksum(data)
}

func canonicalize(b Block) canonicalBlock {
	cb := canonicalBlock{Kind: b.Kind()}
	switch b := b.(type) {
	case *Paragraph:
		cb.Text = b.Text
	case *BulletList:
		cb.Items, cb.Ordered = b.Items, b.Ordered
	case *CodeSample:
		cb.Language, cb.Lines, cb.Context = b.Language, b.Lines, b.Context
	case *ImageRef:
		cb.Path, cb.Caption, cb.Missing = b.Resolved, b.Caption, b.Missing
	}
	return cb
}

// checksum returns the hex-encoded SHA-256 digest of data.
func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
