package activity

import (
	"net/url"
	"strings"
)

// browserWords are matched against the individual words of an app name so
// that "Arc" matches but "Archive Utility" does not.
var browserWords = map[string]bool{
	"chrome": true, "chromium": true, "firefox": true, "safari": true,
	"edge": true, "msedge": true, "brave": true, "arc": true,
	"opera": true, "vivaldi": true, "orion": true, "librewolf": true,
}

// IsBrowser reports whether appName looks like a web browser.
func IsBrowser(appName string) bool {
	name := strings.TrimSuffix(strings.ToLower(appName), ".exe")
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}) {
		if browserWords[word] {
			return true
		}
	}
	return false
}

// DomainOf extracts the lowercased host from rawURL with any leading "www."
// removed. It returns "" for empty or unparseable URLs.
func DomainOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
