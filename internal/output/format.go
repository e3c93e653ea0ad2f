package output

import (
	"fmt"
	"strings"
	"time"
)

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// Duration renders seconds compactly: "45s", "12m", "2h 05m".
func Duration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds) * time.Second
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", seconds)
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		return fmt.Sprintf("%dh %02dm", h, m)
	}
}

// ShareBar renders part/total as a bar of the given width followed by the
// percentage. Example: "██████░░░░ 60%"
func ShareBar(part, total, width int) string {
	if width <= 0 {
		width = 20
	}
	pct := 0.0
	if total > 0 {
		pct = float64(part) / float64(total) * 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", StyleSuccess.Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f%%", pct)))
}

// Confidence renders a boundary confidence, colored by strength.
func Confidence(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.9:
		return StyleSuccess.Render(s)
	case c >= 0.7:
		return StyleWarning.Render(s)
	default:
		return StyleError.Render(s)
	}
}

// AppList renders application names in bold, comma separated.
func AppList(apps []string) string {
	styled := make([]string, len(apps))
	for i, a := range apps {
		styled[i] = StyleBold.Render(a)
	}
	return strings.Join(styled, ", ")
}
