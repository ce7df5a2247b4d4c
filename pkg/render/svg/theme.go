package svg

import (
	"slices"

	"github.com/matzehuels/nestview/pkg/errors"
)

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultTheme is used when no theme is given.
const DefaultTheme = ThemeLight

// Theme is a colour palette.
type Theme struct {
	Background string
	NodeFill   string // used when a node has no fill style
	Stroke     string
	Text       string
	Hint       string
	Edge       string
}

var themes = map[string]Theme{
	ThemeLight: {
		Background: "#ffffff",
		NodeFill:   "#ffffff",
		Stroke:     "#000000",
		Text:       "#000000",
		Hint:       "#888888",
		Edge:       "#222222",
	},
	ThemeDark: {
		Background: "#1e1e1e",
		NodeFill:   "#2e2e2e",
		Stroke:     "#cccccc",
		Text:       "#ffffff",
		Hint:       "#888888",
		Edge:       "#dddddd",
	},
}

// ThemeNames returns the known theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupTheme returns the named theme. An empty name selects DefaultTheme.
func LookupTheme(name string) (Theme, error) {
	if name == "" {
		name = DefaultTheme
	}
	t, ok := themes[name]
	if !ok {
		return Theme{}, errors.New(errors.ErrCodeInvalidInput, "unknown theme %q (want one of %v)", name, ThemeNames())
	}
	return t, nil
}
