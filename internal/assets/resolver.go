package assets

import (
	"errors"
	"sort"
)

// AssetResolver layers a custom directory over the embedded assets.
type AssetResolver struct {
	layers []AssetLoader // highest precedence first, embedded last
}

// NewAssetResolver returns an embedded-only resolver when customBasePath is
// empty, and an error when it is set but not a readable directory.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, fsLoader)
	}
	r.layers = append(r.layers, NewEmbeddedLoader())
	return r, nil
}

func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

// first returns the asset from the first layer that has it. Any error other
// than not found stops the search: a broken custom file is reported, not
// replaced by the embedded one.
func (r *AssetResolver) first(load func(AssetLoader) (string, error)) (string, error) {
	var err error
	for _, l := range r.layers {
		var content string
		if content, err = load(l); err == nil {
			return content, nil
		}
		if !isNotFound(err) {
			return "", err
		}
	}
	return "", err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}

// Themes merges the themes of every layer, sorted and without duplicates.
func (r *AssetResolver) Themes() ([]string, error) {
	seen := make(map[string]bool)
	var all []string
	for _, l := range r.layers {
		lister, ok := l.(ThemeLister)
		if !ok {
			continue
		}
		names, err := lister.Themes()
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				all = append(all, n)
			}
		}
	}
	sort.Strings(all)
	return all, nil
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return len(r.layers) > 1
}

var (
	_ AssetLoader = (*AssetResolver)(nil)
	_ ThemeLister = (*AssetResolver)(nil)
)
