package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	md2deck "github.com/alnah/go-md2deck"
	"github.com/alnah/go-md2deck/internal/config"
	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/hints"
)

// Exit codes for md2deck CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion, no-op or dry run
	ExitGeneral   = 1 // General error, or every target failed
	ExitUsage     = 2 // Invalid flags, config, or options
	ExitIO        = 3 // File not found, permission denied
	ExitBrowser   = 4 // Browser/Chrome errors
	ExitMalformed = 5 // Source document structurally invalid
	ExitAuth      = 6 // Cloud credentials rejected
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
// When every target failed the joined target errors pick the code, so an
// all-auth failure still exits 6.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, md2deck.ErrRendererAuth) {
		return ExitAuth
	}

	if errors.Is(err, md2deck.ErrMalformedDocument) {
		return ExitMalformed
	}

	// Browser errors (exit 4)
	if errors.Is(err, md2deck.ErrBrowserConnect) ||
		errors.Is(err, md2deck.ErrPageCreate) ||
		errors.Is(err, md2deck.ErrPageLoad) ||
		errors.Is(err, md2deck.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, md2deck.ErrIO) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoMarkdownFiles) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, md2deck.ErrConfiguration) ||
		errors.Is(err, md2deck.ErrUnknownTarget) ||
		errors.Is(err, md2deck.ErrInvalidAssetPath) ||
		errors.Is(err, md2deck.ErrThemeNotFound) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, flag.ErrHelp) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintContext carries the user input a hint can refer to.
type hintContext struct {
	credentials string // --credentials reference
	configName  string // --config value
	assetPath   string // --asset-path value
	getenv      func(string) string
}

// hintFor returns actionable advice for err, or "".
func hintFor(err error, hc hintContext) string {
	var cfgErr *md2deck.ConfigurationError
	var authErr *md2deck.RendererAuthError

	switch {
	case errors.As(err, &authErr):
		return hints.ForCredentials(hc.credentials)
	case errors.Is(err, md2deck.ErrMalformedDocument):
		return hints.ForMalformedDocument()
	case errors.Is(err, md2deck.ErrBrowserConnect):
		getenv := hc.getenv
		if getenv == nil {
			getenv = func(string) string { return "" }
		}
		inContainer, _ := isContainer(getenv)
		return hints.ForBrowserConnect(getenv, inContainer)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths(hc.configName))
	case errors.Is(err, md2deck.ErrThemeNotFound),
		errors.As(err, &cfgErr) && cfgErr.Field == "Theme":
		return hints.ForThemeNotFound(themesFor(hc.assetPath))
	case errors.Is(err, md2deck.ErrIO) && isMkdirError(err):
		return hints.ForOutputDirectory()
	}
	return ""
}

// themesFor lists the themes a hint can suggest, falling back to the
// built-in ones when the asset directory itself is unusable.
func themesFor(assetPath string) []string {
	themes, err := md2deck.AvailableThemes(assetPath)
	if err != nil || len(themes) == 0 {
		return md2deck.BuiltinThemes()
	}
	return themes
}

// configSearchPaths lists where a bare config name is looked up.
func configSearchPaths(name string) []string {
	if name == "" || fileutil.IsFilePath(name) {
		return nil
	}
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, config.AppDir, name+".yaml"),
			filepath.Join(dir, config.AppDir, name+".yml"))
	}
	return paths
}

func isMkdirError(err error) bool {
	var ioErr *md2deck.IOError
	return errors.As(err, &ioErr) && ioErr.Op == "mkdir"
}
