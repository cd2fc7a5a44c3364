// Package assets provides the deck template and theme stylesheets used by
// the binary deck renderer.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in themes and the deck template
//	    ├── FilesystemLoader  - custom themes from a directory on disk
//	    └── AssetResolver     - custom first, embedded fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {theme}.css      # e.g. corporate.css
//	└── templates/
//	    └── {name}.html      # e.g. deck.html
//
// A custom directory may override any subset: a theme missing on disk is
// served from the embedded set.
//
// # Security
//
// Asset names are validated before use. FilesystemLoader resolves symlinks
// and verifies every path stays within basePath.
package assets
