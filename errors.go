package md2deck

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
// Typed errors below unwrap to these, so callers can use errors.Is.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrConfiguration     = errors.New("invalid configuration")
	ErrRendererAuth      = errors.New("renderer authentication failed")
	ErrIO                = errors.New("i/o error")
	ErrAllTargetsFailed  = errors.New("all targets failed")

	// Binary deck errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrDeckTemplate   = errors.New("deck template rendering failed")

	// Cloud deck errors.
	ErrCloudRender = errors.New("cloud deck rendering failed")

	// Asset errors.
	ErrThemeNotFound    = errors.New("theme not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")

	// Rendering errors.
	ErrUnknownTarget    = errors.New("unknown output target")
	ErrNoRenderer       = errors.New("no renderer registered for target")
	ErrRendererPanicked = errors.New("renderer panicked")
)

// MalformedDocumentError names the first structural defect of a source
// document. It aborts the run before planning.
type MalformedDocumentError struct {
	Line   int // 1-based; 0 when the defect has no position
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedDocument, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedDocument, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return ErrMalformedDocument }

// ConfigurationError rejects options before any work begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// RendererAuthError fails one target whose credentials were rejected.
// The caller may retry that target with fresh credentials.
type RendererAuthError struct {
	Target Target
	Err    error
}

func (e *RendererAuthError) Error() string {
	return fmt.Sprintf("%s target: %s: %v", e.Target, ErrRendererAuth, e.Err)
}

func (e *RendererAuthError) Unwrap() []error { return []error{ErrRendererAuth, e.Err} }

// IOError reports a failed read or write of a file the run depends on.
type IOError struct {
	Op   string // "read", "write", "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrIO, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
