package md2deck

import (
	"fmt"
	"strings"
)

// Built-in theme names.
const (
	ThemeLight     = "light"
	ThemeDark      = "dark"
	ThemeTechnical = "technical"

	DefaultTheme = ThemeLight
)

// Palette holds the colors and fonts a theme applies to every target.
type Palette struct {
	Background string
	Text       string
	Primary    string // headings
	Secondary  string // accents on title slides
	Accent     string // bullets, labels
	CodeBg     string
	Font       string
	CodeFont   string
}

const (
	defaultDeckFont = `"San Francisco", "Helvetica Neue", Helvetica, Arial, sans-serif`
	defaultCodeFont = `Monaco, Menlo, Consolas, monospace`
)

var palettes = map[string]Palette{
	ThemeLight: {
		Background: "#FFFFFF",
		Text:       "#333333",
		Primary:    "#2E5090",
		Secondary:  "#FF6B6B",
		Accent:     "#4ECDC4",
		CodeBg:     "#F5F5F5",
		Font:       defaultDeckFont,
		CodeFont:   defaultCodeFont,
	},
	ThemeDark: {
		Background: "#1E1E1E",
		Text:       "#FFFFFF",
		Primary:    "#4ECDC4",
		Secondary:  "#FF6B6B",
		Accent:     "#FFE66D",
		CodeBg:     "#2D2D2D",
		Font:       defaultDeckFont,
		CodeFont:   defaultCodeFont,
	},
	ThemeTechnical: {
		Background: "#0D1117",
		Text:       "#E6EDF3",
		Primary:    "#58A6FF",
		Secondary:  "#79C0FF",
		Accent:     "#79C0FF",
		CodeBg:     "#0D1117",
		Font:       defaultDeckFont,
		CodeFont:   defaultCodeFont,
	},
}

// PaletteFor returns the palette of a built-in theme. Custom themes loaded
// from an asset directory reuse the light palette for non-CSS targets.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[strings.ToLower(theme)]; ok {
		return p
	}
	return palettes[DefaultTheme]
}

// BuiltinThemes lists the themes that need no asset directory.
func BuiltinThemes() []string {
	return []string{ThemeLight, ThemeDark, ThemeTechnical}
}

// ---------------------------------------------------------------------------
// Aspect ratio
// ---------------------------------------------------------------------------

// Aspect ratios.
const (
	AspectWide     = "16:9"
	AspectStandard = "4:3"
	AspectWide1610 = "16:10"

	DefaultAspectRatio = AspectWide
)

// deckWidthInches is shared by every aspect ratio; height follows the ratio.
const deckWidthInches = 10.0

// slideMarginInches pads slide content on every side.
const slideMarginInches = 0.5

// PageSize returns slide dimensions in inches for an aspect ratio.
func PageSize(aspect string) (width, height float64, err error) {
	switch aspect {
	case AspectWide, "":
		return deckWidthInches, 5.625, nil
	case AspectStandard:
		return deckWidthInches, 7.5, nil
	case AspectWide1610:
		return deckWidthInches, 6.25, nil
	}
	return 0, 0, fmt.Errorf("%w: aspect ratio %q (must be 16:9, 4:3 or 16:10)", ErrConfiguration, aspect)
}

// ---------------------------------------------------------------------------
// CSS builders
// ---------------------------------------------------------------------------

// buildPaletteCSS exposes a palette as CSS custom properties consumed by the
// theme stylesheets.
func buildPaletteCSS(p Palette) string {
	return fmt.Sprintf(`
/* Palette */
:root {
  --deck-bg: %s;
  --deck-text: %s;
  --deck-primary: %s;
  --deck-secondary: %s;
  --deck-accent: %s;
  --deck-code-bg: %s;
  --deck-font: %s;
  --deck-code-font: %s;
}
`, p.Background, p.Text, p.Primary, p.Secondary, p.Accent, p.CodeBg, p.Font, p.CodeFont)
}

// buildPageCSS sizes every slide to one printed page.
func buildPageCSS(width, height float64) string {
	return fmt.Sprintf(`
/* Page geometry: one slide per page */
@page {
  size: %.3fin %.3fin;
  margin: 0;
}
.slide {
  width: %.3fin;
  height: %.3fin;
  padding: %.2fin;
  box-sizing: border-box;
  break-after: page;
  page-break-after: always;
  overflow: hidden;
}
.slide:last-child {
  break-after: auto;
  page-break-after: auto;
}
`, width, height, width, height, slideMarginInches)
}
