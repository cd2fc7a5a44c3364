package assets

import "embed"

//go:embed styles/*.css templates/*.html
var embedded embed.FS

// EmbeddedLoader serves the built-in themes and the deck template.
type EmbeddedLoader struct{}

func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

func (*EmbeddedLoader) LoadStyle(name string) (string, error) {
	return loadEmbedded(styleKind, name)
}

func (*EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return loadEmbedded(templateKind, name)
}

// Themes lists the built-in themes.
func (*EmbeddedLoader) Themes() ([]string, error) {
	return styleKind.names(embedded)
}

func loadEmbedded(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	return k.read(embedded, name)
}

var (
	_ AssetLoader = (*EmbeddedLoader)(nil)
	_ ThemeLister = (*EmbeddedLoader)(nil)
)
