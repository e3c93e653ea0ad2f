package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

var ideApps = []string{
	"code", "cursor", "intellij", "goland", "pycharm", "webstorm", "phpstorm",
	"rubymine", "clion", "rider", "android studio", "sublime", "zed", "nova",
	"neovim", "nvim", "vim", "emacs", "fleet", "windsurf",
}

var terminalApps = []string{
	"terminal", "iterm", "ghostty", "warp", "alacritty", "kitty", "hyper",
	"wezterm", "konsole", "tabby", "powershell", "cmd.exe",
}

var designApps = []string{
	"figma", "sketch", "photoshop", "illustrator", "affinity", "canva",
	"framer", "adobe xd", "pixelmator", "penpot",
}

var communicationApps = []string{
	"slack", "discord", "teams", "zoom", "telegram", "whatsapp", "messages",
	"mattermost", "signal",
}

// idePlaceholders are IDE titles that name a tool pane rather than a file.
var idePlaceholders = map[string]bool{
	"welcome": true, "settings": true, "preferences": true, "get started": true,
	"extensions": true, "untitled": true, "release notes": true, "keyboard shortcuts": true,
}

// ideNames are trailing title segments naming the editor itself.
var ideNames = map[string]bool{
	"visual studio code": true, "code": true, "cursor": true, "intellij idea": true,
	"goland": true, "pycharm": true, "webstorm": true, "xcode": true,
	"sublime text": true, "zed": true, "windsurf": true, "neovim": true, "vim": true,
}

// extractIDE handles "file — project", "file - project - IDE" and "file - IDE".
func extractIDE(title string) *activity.Context {
	title = strings.TrimLeft(title, "●• ")
	parts := splitTitle(title)
	if len(parts) > 1 && ideNames[strings.ToLower(parts[len(parts)-1])] {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	first := parts[0]
	if idePlaceholders[strings.ToLower(first)] || ideNames[strings.ToLower(first)] {
		return nil
	}

	detail := ""
	if len(parts) > 1 {
		detail = parts[1]
	}
	if looksLikeFile(first) {
		return &activity.Context{Kind: activity.ContextFile, Value: first, Detail: detail}
	}
	return &activity.Context{Kind: activity.ContextProject, Value: first, Detail: detail}
}

// looksLikeFile reports whether s has a file extension or a path separator.
func looksLikeFile(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	ext := path.Ext(s)
	return len(ext) > 1 && !strings.Contains(ext, " ")
}

const maxCommandLen = 50

// shellNames are terminal titles that only name the shell.
var shellNames = map[string]bool{
	"zsh": true, "-zsh": true, "bash": true, "-bash": true, "fish": true,
	"sh": true, "-sh": true, "pwsh": true, "powershell": true, "cmd": true,
	"terminal": true, "login": true, "nu": true,
}

// commandVerbs are leading words recognized as a command invocation.
var commandVerbs = map[string]bool{
	"git": true, "npm": true, "npx": true, "yarn": true, "pnpm": true, "bun": true,
	"deno": true, "node": true, "go": true, "cargo": true, "make": true,
	"docker": true, "kubectl": true, "helm": true, "terraform": true,
	"python": true, "python3": true, "pip": true, "pytest": true, "ruby": true,
	"rails": true, "ssh": true, "vim": true, "nvim": true, "brew": true,
	"claude": true, "psql": true, "mysql": true, "redis-cli": true,
}

// userHostPrefix matches "user@host:" prompts in terminal titles.
var userHostPrefix = regexp.MustCompile(`^[\w.-]+@[\w.-]+:\s*`)

func extractTerminal(title string) *activity.Context {
	parts := splitTitle(title)
	if len(parts) == 0 {
		return nil
	}
	// Terminals put the interesting part first and the shell or app name last.
	text := userHostPrefix.ReplaceAllString(parts[0], "")
	text = strings.TrimSpace(text)
	if text == "" || shellNames[strings.ToLower(text)] {
		return nil
	}

	fields := strings.Fields(text)
	head := fields[0]
	if strings.HasPrefix(head, "~") || strings.HasPrefix(head, "/") {
		return &activity.Context{Kind: activity.ContextFile, Value: truncate(head, maxCommandLen)}
	}
	if commandVerbs[strings.ToLower(head)] {
		return &activity.Context{Kind: activity.ContextCommand, Value: truncate(text, maxCommandLen)}
	}
	return nil
}

// zoomAnnotation matches trailing "@ 66%" or "@ 100% (RGB/8)" annotations.
var zoomAnnotation = regexp.MustCompile(`\s*@\s*\d+(\.\d+)?%.*$`)

func extractDesign(title string) *activity.Context {
	title = zoomAnnotation.ReplaceAllString(title, "")
	parts := splitTitle(title)
	if len(parts) > 1 && matchAny(designApps)(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	name := parts[0]
	if genericTitles[strings.ToLower(name)] || matchAny(designApps)(name) {
		return nil
	}
	return &activity.Context{Kind: activity.ContextDocument, Value: name}
}

// channelMarker matches Slack-style "name (Channel)" / "name (DM)" segments.
var channelMarker = regexp.MustCompile(`^(.+?)\s*\((Channel|DM|Private channel|Group DM)\)$`)

func extractCommunication(title string) *activity.Context {
	parts := splitTitle(title)
	if len(parts) > 1 && matchAny(communicationApps)(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 && matchAny(communicationApps)(parts[0]) {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return nil
	}

	detail := ""
	if len(parts) > 1 {
		detail = parts[len(parts)-1]
	}

	for _, p := range parts {
		if strings.HasPrefix(p, "#") {
			return &activity.Context{Kind: activity.ContextOther, Value: p, Detail: workspace(parts, p)}
		}
		if m := channelMarker.FindStringSubmatch(p); m != nil {
			value := m[1]
			if strings.Contains(m[2], "DM") {
				value = "@" + value
			} else if !strings.HasPrefix(value, "#") {
				value = "#" + value
			}
			return &activity.Context{Kind: activity.ContextOther, Value: value, Detail: workspace(parts, p)}
		}
	}

	first := parts[0]
	if genericTitles[strings.ToLower(first)] || matchAny(communicationApps)(first) {
		return nil
	}
	if first == detail {
		detail = ""
	}
	return &activity.Context{Kind: activity.ContextOther, Value: first, Detail: detail}
}

// workspace returns the last title segment when it differs from the channel segment.
func workspace(parts []string, channel string) string {
	last := parts[len(parts)-1]
	if last == channel {
		return ""
	}
	return last
}

// browserSuffixes are appended to page titles by the browsers themselves.
var browserSuffixes = []string{
	" - Google Chrome", " — Google Chrome", " - Chromium",
	" — Mozilla Firefox", " - Mozilla Firefox", " — Firefox", " - Firefox",
	" - Microsoft Edge", " — Microsoft Edge",
	" - Brave", " — Brave", " - Safari", " — Safari", " - Arc", " — Arc",
	" - Opera", " - Vivaldi", " - Orion",
}

// cleanBrowserTitle removes browser branding and profile suffixes.
func cleanBrowserTitle(title string) string {
	for changed := true; changed; {
		changed = false
		for _, s := range browserSuffixes {
			if strings.HasSuffix(title, s) {
				title = strings.TrimSpace(strings.TrimSuffix(title, s))
				changed = true
			}
		}
		for _, profile := range []string{" - Personal", " - Work", " — Personal", " — Work"} {
			if strings.HasSuffix(title, profile) {
				title = strings.TrimSpace(strings.TrimSuffix(title, profile))
				changed = true
			}
		}
	}
	return title
}

const (
	maxURLPath = 50
	maxDetail  = 60
)

var codeHosts = map[string]bool{
	"github.com": true, "gitlab.com": true, "bitbucket.org": true, "codeberg.org": true,
}

var qaHosts = map[string]bool{
	"stackoverflow.com": true, "superuser.com": true, "serverfault.com": true,
	"askubuntu.com": true, "quora.com": true,
}

func extractURL(rawURL, cleanTitle string) *activity.Context {
	domain := activity.DomainOf(rawURL)
	if domain == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	p := strings.TrimSuffix(u.EscapedPath(), "/")
	detail := truncate(cleanTitle, maxDetail)

	switch {
	case codeHosts[domain]:
		segs := strings.Split(strings.Trim(p, "/"), "/")
		if len(segs) >= 2 && segs[0] != "" {
			return &activity.Context{Kind: activity.ContextURL, Value: domain + "/" + segs[0] + "/" + segs[1], Detail: detail}
		}
		return &activity.Context{Kind: activity.ContextURL, Value: domain, Detail: detail}
	case qaHosts[domain] || strings.HasSuffix(domain, ".stackexchange.com"):
		return &activity.Context{Kind: activity.ContextURL, Value: domain, Detail: detail}
	}

	return &activity.Context{Kind: activity.ContextURL, Value: domain + truncate(p, maxURLPath), Detail: detail}
}
