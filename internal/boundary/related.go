package boundary

import "strings"

// appGroups are clusters of applications used together in one work context.
// Membership is a case-insensitive substring match in either direction.
var appGroups = map[string][]string{
	"development": {
		"code", "visual studio code", "cursor", "windsurf", "zed", "intellij", "goland",
		"pycharm", "webstorm", "xcode", "android studio", "sublime", "neovim",
		"terminal", "iterm", "ghostty", "warp", "alacritty", "kitty", "wezterm",
		"postman", "insomnia", "bruno", "tableplus", "docker",
	},
	"design": {
		"figma", "sketch", "photoshop", "illustrator", "affinity", "pixelmator",
		"framer", "canva", "penpot",
	},
	"browser": {
		"chrome", "chromium", "firefox", "safari", "edge", "brave", "arc",
		"opera", "vivaldi",
	},
	"communication": {
		"slack", "discord", "microsoft teams", "zoom", "telegram", "whatsapp",
		"messages", "mail", "outlook", "mattermost",
	},
}

// groupOrder fixes iteration order so decisions are deterministic.
var groupOrder = []string{"development", "design", "browser", "communication"}

// relatedAppGroup returns the name of a group containing both apps, or "".
func relatedAppGroup(a, b string) string {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return ""
	}
	for _, name := range groupOrder {
		members := appGroups[name]
		if inGroup(a, members) && inGroup(b, members) {
			return name
		}
	}
	return ""
}

func inGroup(app string, members []string) bool {
	for _, m := range members {
		if strings.Contains(app, m) || strings.Contains(m, app) {
			return true
		}
	}
	return false
}

// domainGroups are sites that belong to the same ecosystem.
var domainGroups = [][]string{
	{"github.com", "githubusercontent.com", "github.io", "gitlab.com", "bitbucket.org", "pkg.go.dev", "npmjs.com", "crates.io", "pypi.org"},
	{"google.com", "bing.com", "duckduckgo.com", "kagi.com", "perplexity.ai"},
	{"stackoverflow.com", "stackexchange.com", "superuser.com", "serverfault.com"},
	{"atlassian.net", "jira.com", "confluence.com", "trello.com", "linear.app"},
	{"notion.so", "notion.site"},
	{"figma.com", "framer.com", "dribbble.com", "behance.net"},
}

// relatedDomains reports whether two distinct domains share an ecosystem group.
func relatedDomains(a, b string) bool {
	for _, group := range domainGroups {
		if domainInGroup(a, group) && domainInGroup(b, group) {
			return true
		}
	}
	return false
}

func domainInGroup(domain string, group []string) bool {
	for _, g := range group {
		if domain == g || strings.HasSuffix(domain, "."+g) {
			return true
		}
	}
	return false
}
