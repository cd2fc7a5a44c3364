package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// DeckTemplateName is the template every binary deck is rendered from.
const DeckTemplateName = "deck"

// AssetLoader loads theme stylesheets and HTML templates by name.
type AssetLoader interface {
	// LoadStyle loads a theme stylesheet (name without .css).
	// Returns ErrStyleNotFound if the theme doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template (name without .html).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(name string) (string, error)
}

// ThemeLister is implemented by loaders that can enumerate their themes.
type ThemeLister interface {
	Themes() ([]string, error)
}

// kind is one asset family: the directory it lives in and its extension.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// rel is the slash-separated path of name inside an asset root.
func (k kind) rel(name string) string {
	return k.dir + "/" + name + k.ext
}

// read loads name from fsys. The name must already be validated.
func (k kind) read(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, k.rel(name))
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	default:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
}

// names lists the valid asset names of this kind in fsys, sorted.
// A missing directory has no names.
func (k kind) names(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, k.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), k.ext)
		if ok && ValidateAssetName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
