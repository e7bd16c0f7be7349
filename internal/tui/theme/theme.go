// Package theme holds the finlens color palettes and the budget and insight
// color scales built on them.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps color roles to terminal colors.
type Theme struct {
	Name string

	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and panels
	SurfaceHover lipgloss.Color // active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused panels

	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Key          lipgloss.Color // key names in help and hints

	// Budget and tier scale, calm to alarming.
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Orange lipgloss.Color
	Red    lipgloss.Color

	// Series colors spending categories in order.
	Series []lipgloss.Color
}

// FlexokiDark is the default palette.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Key:          lipgloss.Color("#24837B"),
	Green:        lipgloss.Color("#879A39"),
	Yellow:       lipgloss.Color("#D0A215"),
	Orange:       lipgloss.Color("#DA702C"),
	Red:          lipgloss.Color("#D14D41"),
	Series: []lipgloss.Color{
		"#4385BE", "#3AA99F", "#CE5D97", "#D0A215", "#DA702C", "#879A39",
	},
}

// Terminal sticks to the 16 ANSI colors.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Key:          lipgloss.Color("6"),
	Green:        lipgloss.Color("2"),
	Yellow:       lipgloss.Color("3"),
	Orange:       lipgloss.Color("11"),
	Red:          lipgloss.Color("1"),
	Series: []lipgloss.Color{
		"4", "6", "5", "3", "11", "2",
	},
}

// Active is the palette the TUI renders with.
var Active = FlexokiDark

var byName = map[string]Theme{
	FlexokiDark.Name: FlexokiDark,
	Terminal.Name:    Terminal,
}

// TierLow, TierMedium and TierHigh index the tier colors returned by
// Theme.Tier.
const (
	TierLow = iota
	TierMedium
	TierHigh
)

// Tier returns the badge color for an insight tier level. High is the
// alarming end of the scale.
func (t Theme) Tier(level int) lipgloss.Color {
	switch level {
	case TierHigh:
		return t.Red
	case TierMedium:
		return t.Yellow
	default:
		return t.Green
	}
}

// Budget returns the color for a budget usage percent.
func (t Theme) Budget(pct int, over bool) lipgloss.Color {
	switch {
	case over:
		return t.Red
	case pct >= 80:
		return t.Orange
	case pct >= 50:
		return t.Yellow
	default:
		return t.Green
	}
}

// SeriesColor returns the color for the i-th category.
func (t Theme) SeriesColor(i int) lipgloss.Color {
	if len(t.Series) == 0 {
		return t.Accent
	}
	return t.Series[i%len(t.Series)]
}

// ByName looks up a palette. Unknown names return FlexokiDark and false.
func ByName(name string) (Theme, bool) {
	t, ok := byName[name]
	if !ok {
		return FlexokiDark, false
	}
	return t, true
}

// SetActive switches the active palette and reports whether name was known.
func SetActive(name string) bool {
	t, ok := ByName(name)
	Active = t
	return ok
}
