// Package md2deck turns Markdown technical articles into slide decks.
//
// # Quick Start
//
// Create a converter, convert an article, and close when done:
//
//	conv, err := md2deck.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, md2deck.Input{
//	    SourcePath: "posts/scaling-workers.md",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range result.Targets {
//	    if t.OK() {
//	        fmt.Println(t.Target, t.Artifact.Path)
//	    }
//	}
//
// A partial failure still returns a result: check Result.Failed for the
// targets that did not render.
//
// # Conversion Pipeline
//
// Each conversion follows these stages:
//
//  1. Parse the article into a Document (title, front matter, sections, blocks)
//  2. Plan slides: title, content, code, visual and a conclusion
//  3. Compare the source hash and settings with the ledger record
//  4. Render every requested target concurrently
//  5. Write the ledger record
//
// An unchanged source with unchanged settings is a no-op unless
// Options.ForceRegenerate is set. Options.DryRun stops after planning.
//
// # Targets
//
//   - binary: a PDF deck printed by headless Chrome (go-rod)
//   - cloud: a Google Slides presentation, rate limited with retries
//   - notes: a plain-text speaker notes file
//
// A failing target never cancels the others.
//
// # Configuration
//
// Converter-wide settings use functional options:
//
//	conv, err := md2deck.NewConverter(
//	    md2deck.WithLogger(log),
//	    md2deck.WithTimeout(2 * time.Minute),
//	    md2deck.WithAssetPath("/path/to/custom/assets"),
//	    md2deck.WithCloud(md2deck.CloudOptions{Credentials: "env:SLIDES_TOKEN"}),
//	)
//
// Per-article settings live in Input.Options; zero values take the defaults
// of DefaultOptions.
//
// # Custom Themes
//
// A custom asset directory may add themes or replace the deck template:
//
//	assets/
//	├── styles/
//	│   └── corporate.css
//	└── templates/
//	    └── deck.html
//
// Missing files fall back to the built-in light, dark and technical themes.
//
// # Browser Requirements
//
// The binary target requires Chrome/Chromium; the browser starts on first
// use. For containers and CI environments, set ROD_NO_SANDBOX=1 to disable
// the Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package md2deck
