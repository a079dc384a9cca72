package render

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Built-in markdown style names
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeDracula    = "dracula"
	ThemePink       = "pink"
	ThemeASCII      = "ascii"
	ThemeNoTTY      = "notty"
)

func strPtr(s string) *string { return &s }

// withGridTables draws box separators so the wide score tables stay readable
func withGridTables(cfg ansi.StyleConfig) ansi.StyleConfig {
	cfg.Table.CenterSeparator = strPtr("┼")
	cfg.Table.ColumnSeparator = strPtr("│")
	cfg.Table.RowSeparator = strPtr("─")
	return cfg
}

// StyleConfig returns the glamour style for a built-in name
func StyleConfig(name string) (ansi.StyleConfig, bool) {
	switch name {
	case "", ThemeDark:
		return withGridTables(styles.DarkStyleConfig), true
	case ThemeLight:
		return withGridTables(styles.LightStyleConfig), true
	case ThemeTokyoNight, "tokyo-night":
		return withGridTables(styles.TokyoNightStyleConfig), true
	case ThemeDracula:
		return withGridTables(styles.DraculaStyleConfig), true
	case ThemePink:
		return styles.PinkStyleConfig, true
	case ThemeASCII:
		return styles.ASCIIStyleConfig, true
	case ThemeNoTTY:
		return styles.NoTTYStyleConfig, true
	}
	return ansi.StyleConfig{}, false
}

// IsBuiltinStyle reports whether style names a built-in style rather than a file
func IsBuiltinStyle(style string) bool {
	_, ok := StyleConfig(style)
	return ok
}

// styleOption selects a built-in style or loads a JSON style file
func styleOption(style string) glamour.TermRendererOption {
	if cfg, ok := StyleConfig(style); ok {
		return glamour.WithStyles(cfg)
	}
	return glamour.WithStylePath(style)
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the built-in markdown styles.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemePink, Description: "Pink accents"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
