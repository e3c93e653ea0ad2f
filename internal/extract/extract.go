// Package extract pulls short, human-meaningful context labels (file names,
// URLs, shell commands, documents, channels) out of window titles and URLs.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

// maxGenericTitle is the exclusive upper bound for returning a raw title as
// an "other" context.
const maxGenericTitle = 100

// strategy extracts context for one family of applications.
type strategy struct {
	name    string
	matches func(appName string) bool
	extract func(title string) *activity.Context
}

// Extractor applies the strategies in a fixed priority order.
type Extractor struct {
	strategies []strategy
}

// New returns an Extractor with the built-in strategies.
func New() *Extractor {
	return &Extractor{
		strategies: []strategy{
			{name: "ide", matches: matchAny(ideApps), extract: extractIDE},
			{name: "terminal", matches: matchAny(terminalApps), extract: extractTerminal},
			{name: "design", matches: matchAny(designApps), extract: extractDesign},
			{name: "communication", matches: matchAny(communicationApps), extract: extractCommunication},
		},
	}
}

// Extract returns the context for one event, or nil when nothing meaningful
// can be derived. A nil result is expected and frequent.
func (x *Extractor) Extract(appName, windowTitle, rawURL, documentPath string) *activity.Context {
	if documentPath != "" {
		return &activity.Context{Kind: activity.ContextFile, Value: documentPath}
	}

	title := strings.TrimSpace(windowTitle)

	if activity.IsBrowser(appName) {
		if rawURL != "" {
			if c := extractURL(rawURL, cleanBrowserTitle(title)); c != nil {
				return c
			}
		}
		return genericTitle(appName, cleanBrowserTitle(title))
	}

	for _, s := range x.strategies {
		if s.matches(appName) {
			// The first matching family owns the title, including its rejections.
			return s.extract(title)
		}
	}

	return genericTitle(appName, title)
}

// ExtractEvent is a convenience wrapper around Extract for a full event.
func (x *Extractor) ExtractEvent(e activity.Event) *activity.Context {
	return x.Extract(e.AppName, e.WindowTitle, e.URL, e.DocumentPath)
}

// genericTitles are titles that carry no information about the activity.
var genericTitles = map[string]bool{
	"":            true,
	"untitled":    true,
	"new tab":     true,
	"new window":  true,
	"home":        true,
	"desktop":     true,
	"finder":      true,
	"loading":     true,
	"loading...":  true,
	"start page":  true,
	"settings":    true,
	"preferences": true,
	"welcome":     true,
}

func genericTitle(appName, title string) *activity.Context {
	lower := strings.ToLower(title)
	if genericTitles[lower] || strings.EqualFold(title, appName) {
		return nil
	}
	if utf8.RuneCountInString(title) >= maxGenericTitle {
		return nil
	}
	return &activity.Context{Kind: activity.ContextOther, Value: title}
}

// matchAny returns a matcher that reports whether the lowercased app name
// contains any of the given names.
func matchAny(names []string) func(string) bool {
	return func(appName string) bool {
		lower := strings.ToLower(appName)
		for _, n := range names {
			if strings.Contains(lower, n) {
				return true
			}
		}
		return false
	}
}

// truncate shortens s to max runes, replacing the tail with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// splitTitle splits a window title on the common " — ", " – ", " - " and
// " | " separators, dropping empty parts.
func splitTitle(title string) []string {
	normalized := title
	for _, sep := range []string{" — ", " – ", " | "} {
		normalized = strings.ReplaceAll(normalized, sep, " - ")
	}
	var parts []string
	for _, p := range strings.Split(normalized, " - ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
