package md2deck

import (
	"errors"

	"github.com/alnah/go-md2deck/internal/assets"
)

// AssetLoader loads theme stylesheets and the deck HTML template.
// Implementations may read from a directory, an embed.FS, a database, etc.
//
// NewAssetLoader returns a filesystem loader falling back to the embedded
// themes. Implement this interface for custom backends.
type AssetLoader interface {
	// LoadStyle loads a theme stylesheet by name (without .css).
	// Returns an error matching ErrThemeNotFound if the theme doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html).
	// The binary deck uses DeckTemplate.
	LoadTemplate(name string) (string, error)
}

// DeckTemplate is the template name the binary deck is rendered from.
const DeckTemplate = assets.DeckTemplateName

// NewAssetLoader creates an AssetLoader for basePath.
// An empty basePath uses only the embedded assets. Otherwise
// basePath/styles/{name}.css and basePath/templates/{name}.html take
// precedence over the embedded files.
//
// Returns ErrInvalidAssetPath if basePath is not a readable directory.
func NewAssetLoader(basePath string) (AssetLoader, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &assetLoaderAdapter{resolver: resolver}, nil
}

// AvailableThemes lists the themes usable with basePath: the built-in ones
// plus every stylesheet under basePath/styles. An empty basePath lists the
// built-in themes only.
func AvailableThemes(basePath string) ([]string, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return resolver.Themes()
}

// assetLoaderAdapter maps internal asset errors to public sentinels.
type assetLoaderAdapter struct {
	resolver *assets.AssetResolver
}

func (a *assetLoaderAdapter) LoadStyle(name string) (string, error) {
	content, err := a.resolver.LoadStyle(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

func (a *assetLoaderAdapter) LoadTemplate(name string) (string, error) {
	content, err := a.resolver.LoadTemplate(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrStyleNotFound), errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrThemeNotFound, err)
	case errors.Is(err, assets.ErrTemplateNotFound):
		return wrapError(ErrDeckTemplate, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	default:
		return err
	}
}

// wrapError keeps the original message while matching the public sentinel
// with errors.Is.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

// Unwrap returns the public sentinel only: internal errors stay internal.
func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
