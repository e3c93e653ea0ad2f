package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

func TestExtract_DocumentPathWins(t *testing.T) {
	x := New()
	c := x.Extract("Code", "main.go — chrono", "https://github.com/a/b", "/Users/me/code/main.go")
	require.NotNil(t, c)
	assert.Equal(t, activity.ContextFile, c.Kind)
	assert.Equal(t, "/Users/me/code/main.go", c.Value)
}

func TestExtract_IDE(t *testing.T) {
	tests := []struct {
		app, title string
		want       *activity.Context
	}{
		{"Code", "main.go — chrono-server", &activity.Context{Kind: activity.ContextFile, Value: "main.go", Detail: "chrono-server"}},
		{"Visual Studio Code", "● aggregator.go - chrono-server - Visual Studio Code", &activity.Context{Kind: activity.ContextFile, Value: "aggregator.go", Detail: "chrono-server"}},
		{"Cursor", "README.md - Cursor", &activity.Context{Kind: activity.ContextFile, Value: "README.md"}},
		{"GoLand", "chrono-server – internal", &activity.Context{Kind: activity.ContextProject, Value: "chrono-server", Detail: "internal"}},
		{"Code", "Welcome — chrono-server", nil},
		{"Cursor", "Settings - Cursor", nil},
	}
	x := New()
	for _, tc := range tests {
		got := x.Extract(tc.app, tc.title, "", "")
		assert.Equal(t, tc.want, got, "%s: %q", tc.app, tc.title)
	}
}

func TestExtract_Terminal(t *testing.T) {
	tests := []struct {
		app, title string
		want       *activity.Context
	}{
		{"Ghostty", "~/code/chrono-server", &activity.Context{Kind: activity.ContextFile, Value: "~/code/chrono-server"}},
		{"iTerm2", "me@laptop: /var/log", &activity.Context{Kind: activity.ContextFile, Value: "/var/log"}},
		{"Terminal", "npm run dev — node", &activity.Context{Kind: activity.ContextCommand, Value: "npm run dev"}},
		{"Warp", "git rebase main", &activity.Context{Kind: activity.ContextCommand, Value: "git rebase main"}},
		{"Terminal", "-zsh", nil},
		{"Alacritty", "bash", nil},
		{"Kitty", "htop", nil},
	}
	x := New()
	for _, tc := range tests {
		got := x.Extract(tc.app, tc.title, "", "")
		assert.Equal(t, tc.want, got, "%s: %q", tc.app, tc.title)
	}
}

func TestExtract_TerminalCommandCapped(t *testing.T) {
	long := "go test ./internal/aggregator/... -run TestAggregate_ManyEvents -count=1 -v"
	c := New().Extract("Ghostty", long, "", "")
	require.NotNil(t, c)
	assert.Equal(t, activity.ContextCommand, c.Kind)
	assert.Len(t, c.Value, 50)
	assert.True(t, strings.HasSuffix(c.Value, "..."))
}

func TestExtract_Design(t *testing.T) {
	x := New()
	c := x.Extract("Figma", "Onboarding flow – Figma", "", "")
	require.NotNil(t, c)
	assert.Equal(t, &activity.Context{Kind: activity.ContextDocument, Value: "Onboarding flow"}, c)

	c = x.Extract("Adobe Photoshop 2025", "hero.psd @ 66.7% (RGB/8)", "", "")
	require.NotNil(t, c)
	assert.Equal(t, "hero.psd", c.Value)
}

func TestExtract_Communication(t *testing.T) {
	tests := []struct {
		app, title string
		value      string
		detail     string
	}{
		{"Slack", "general (Channel) - Acme - Slack", "#general", "Acme"},
		{"Slack", "Slack | #eng-backend | Acme", "#eng-backend", "Acme"},
		{"Slack", "Jane Doe (DM) - Acme - Slack", "@Jane Doe", "Acme"},
		{"Discord", "#announcements | Gophers - Discord", "#announcements", "Gophers"},
	}
	x := New()
	for _, tc := range tests {
		c := x.Extract(tc.app, tc.title, "", "")
		require.NotNil(t, c, tc.title)
		assert.Equal(t, tc.value, c.Value, tc.title)
		assert.Equal(t, tc.detail, c.Detail, tc.title)
	}
}

func TestExtract_BrowserCodeHost(t *testing.T) {
	c := New().Extract("Firefox", "Issues · a/b — Mozilla Firefox", "https://github.com/a/b/issues", "")
	require.NotNil(t, c)
	assert.Equal(t, activity.ContextURL, c.Kind)
	assert.Equal(t, "github.com/a/b", c.Value)
	assert.Equal(t, "Issues · a/b", c.Detail)
}

func TestExtract_BrowserQA(t *testing.T) {
	title := "go - How do I use context.WithTimeout correctly across goroutines in a worker pool - Stack Overflow - Google Chrome"
	c := New().Extract("Google Chrome", title, "https://stackoverflow.com/questions/123/how-do-i", "")
	require.NotNil(t, c)
	assert.Equal(t, "stackoverflow.com", c.Value)
	assert.Len(t, []rune(c.Detail), 60)
	assert.True(t, strings.HasSuffix(c.Detail, "..."))
}

func TestExtract_BrowserGenericURL(t *testing.T) {
	c := New().Extract("Arc", "Pricing", "https://example.com/products/enterprise/pricing/compare/annual-plans-2026", "")
	require.NotNil(t, c)
	assert.Equal(t, activity.ContextURL, c.Kind)
	assert.Equal(t, "example.com/products/enterprise/pricing/compare/annual-pla...", c.Value)
	assert.Equal(t, "Pricing", c.Detail)

	// Only the path is shortened; long hosts stay whole.
	c = New().Extract("Firefox", "Setup", "https://averyveryveryverylongsubdomain.example-enterprise-docs.com/guides/setup", "")
	require.NotNil(t, c)
	assert.Equal(t, "averyveryveryverylongsubdomain.example-enterprise-docs.com/guides/setup", c.Value)

	c = New().Extract("Safari", "Example", "https://example.com/", "")
	require.NotNil(t, c)
	assert.Equal(t, "example.com", c.Value)
}

func TestExtract_BrowserWithoutURL(t *testing.T) {
	c := New().Extract("Google Chrome", "Release notes - Google Chrome", "", "")
	require.NotNil(t, c)
	assert.Equal(t, activity.ContextOther, c.Kind)
	assert.Equal(t, "Release notes", c.Value)

	assert.Nil(t, New().Extract("Google Chrome", "New Tab - Google Chrome", "", ""))
}

func TestExtract_GenericFallback(t *testing.T) {
	x := New()
	c := x.Extract("Notes", "Groceries", "", "")
	require.NotNil(t, c)
	assert.Equal(t, &activity.Context{Kind: activity.ContextOther, Value: "Groceries"}, c)

	assert.Nil(t, x.Extract("Finder", "Finder", "", ""))
	assert.Nil(t, x.Extract("Notes", "Untitled", "", ""))
	assert.Nil(t, x.Extract("Notes", strings.Repeat("x", 100), "", ""))
	assert.NotNil(t, x.Extract("Notes", strings.Repeat("x", 99), "", ""))

	// The limit counts characters, not bytes.
	c = x.Extract("Notes", strings.Repeat("日", 40), "", "")
	require.NotNil(t, c)
	assert.Equal(t, strings.Repeat("日", 40), c.Value)
	assert.NotNil(t, x.Extract("Notes", strings.Repeat("é", 99), "", ""))
	assert.Nil(t, x.Extract("Notes", strings.Repeat("é", 100), "", ""))
}
