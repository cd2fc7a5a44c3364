package assets

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in theme stylesheet.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads a built-in template.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// EmbeddedThemes lists the built-in theme names, sorted.
func EmbeddedThemes() []string {
	names, _ := defaultLoader.Themes()
	return names
}
