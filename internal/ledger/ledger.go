// Package ledger persists one generation record per converted source so a
// repeated run over unchanged input can be recognized as a no-op.
//
// Three stores share the Store interface: MemoryStore for tests and library
// callers, FileStore writing a YAML record next to the artifacts, and
// SQLiteStore keeping every source of a batch in one database.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record exists for a source.
var ErrNotFound = errors.New("ledger: no record for source")

// ErrInvalidRecord is returned by Put for a record without a source path.
var ErrInvalidRecord = errors.New("ledger: record has no source path")

// Target outcome statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusCached = "cached"
)

// Config is the configuration snapshot stored with a record. Targets are
// sorted so equal configurations compare equal.
type Config struct {
	Theme            string   `json:"theme" yaml:"theme"`
	AspectRatio      string   `json:"aspectRatio" yaml:"aspectRatio"`
	MaxWordsPerSlide int      `json:"maxWordsPerSlide" yaml:"maxWordsPerSlide"`
	MaxCodeLines     int      `json:"maxCodeLines" yaml:"maxCodeLines"`
	MinSlides        int      `json:"minSlides" yaml:"minSlides"`
	Targets          []string `json:"targets" yaml:"targets"`
	OutputDir        string   `json:"outputDir" yaml:"outputDir"`
	DateFormat       string   `json:"dateFormat,omitempty" yaml:"dateFormat,omitempty"`

	ConclusionMarkers []string `json:"conclusionMarkers,omitempty" yaml:"conclusionMarkers,omitempty"`
}

// Stats counts slides per kind.
type Stats struct {
	Slides      int `json:"slides" yaml:"slides"`
	Content     int `json:"content" yaml:"content"`
	Code        int `json:"code" yaml:"code"`
	Visual      int `json:"visual" yaml:"visual"`
	Conclusions int `json:"conclusions" yaml:"conclusions"`
	Words       int `json:"words" yaml:"words"`
	CodeLines   int `json:"codeLines" yaml:"codeLines"`
	MaxWords    int `json:"maxWords" yaml:"maxWords"`
}

// TargetRecord is the outcome of one renderer.
type TargetRecord struct {
	Target   string `json:"target" yaml:"target"`
	Status   string `json:"status" yaml:"status"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Record is one generation run of one source.
type Record struct {
	RunID       string         `json:"runId" yaml:"runId"`
	SourcePath  string         `json:"sourcePath" yaml:"sourcePath"`
	ContentHash string         `json:"contentHash" yaml:"contentHash"`
	Config      Config         `json:"config" yaml:"config"`
	SlideCount  int            `json:"slideCount" yaml:"slideCount"`
	Stats       Stats          `json:"stats" yaml:"stats"`
	Targets     []TargetRecord `json:"targets" yaml:"targets"`
	Warnings    int            `json:"warnings" yaml:"warnings"`
	DurationMS  int64          `json:"durationMs" yaml:"durationMs"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
}

// Duration returns the recorded run time.
func (r *Record) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// Target returns the outcome recorded for target, if any.
func (r *Record) Target(target string) (TargetRecord, bool) {
	for _, t := range r.Targets {
		if t.Target == target {
			return t, true
		}
	}
	return TargetRecord{}, false
}

// Succeeded reports whether every listed target has an ok outcome.
func (r *Record) Succeeded(targets []string) bool {
	for _, name := range targets {
		t, ok := r.Target(name)
		if !ok || t.Status != StatusOK {
			return false
		}
	}
	return true
}

// Store keeps the latest record per source path.
type Store interface {
	// Get returns the record for sourcePath or ErrNotFound.
	Get(ctx context.Context, sourcePath string) (*Record, error)
	// Put replaces the record for rec.SourcePath.
	Put(ctx context.Context, rec *Record) error
	Close() error
}

func validateRecord(rec *Record) error {
	if rec == nil || rec.SourcePath == "" {
		return ErrInvalidRecord
	}
	return nil
}

// clone deep-copies a record so stores never share slices with callers.
func clone(rec *Record) *Record {
	c := *rec
	c.Config.Targets = append([]string(nil), rec.Config.Targets...)
	c.Config.ConclusionMarkers = append([]string(nil), rec.Config.ConclusionMarkers...)
	c.Targets = append([]TargetRecord(nil), rec.Targets...)
	return &c
}
