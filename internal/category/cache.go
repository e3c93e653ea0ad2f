// Package category resolves events to user-defined categories using an
// immutable in-memory snapshot of the category store.
package category

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/logging"
)

// AppRule maps an application (by name and/or bundle id) to a category.
type AppRule struct {
	AppName  string `json:"app_name" yaml:"app_name"`
	BundleID string `json:"bundle_id,omitempty" yaml:"bundle_id,omitempty"`
	Category string `json:"category" yaml:"category"`
}

// DomainRule maps a domain, or a wildcard domain pattern, to a category.
type DomainRule struct {
	Domain   string `json:"domain" yaml:"domain"`
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Category string `json:"category" yaml:"category"`
}

// Store is the read side of the external category store.
type Store interface {
	ListAppCategories(ctx context.Context) ([]AppRule, error)
	ListDomainCategories(ctx context.Context) ([]DomainRule, error)
}

// Resolver resolves an event to a category. The bool is false when nothing matched.
type Resolver interface {
	CategoryFor(e activity.Event) (activity.Category, bool)
}

type wildcard struct {
	pattern  string
	re       *regexp.Regexp
	category activity.Category
}

// Snapshot is an immutable lookup structure built from one read of the store.
// The zero value resolves nothing.
type Snapshot struct {
	byBundle  map[string]activity.Category
	byApp     map[string]activity.Category
	byDomain  map[string]activity.Category
	wildcards []wildcard
}

// NewSnapshot builds a snapshot from store rows. Rows with an unknown
// category or an empty key are skipped.
func NewSnapshot(apps []AppRule, domains []DomainRule) *Snapshot {
	s := &Snapshot{
		byBundle: make(map[string]activity.Category),
		byApp:    make(map[string]activity.Category),
		byDomain: make(map[string]activity.Category),
	}
	for _, r := range apps {
		cat, ok := activity.ParseCategory(r.Category)
		if !ok {
			continue
		}
		if r.BundleID != "" {
			s.byBundle[strings.ToLower(r.BundleID)] = cat
		}
		if r.AppName != "" {
			s.byApp[strings.ToLower(r.AppName)] = cat
		}
	}
	for _, r := range domains {
		cat, ok := activity.ParseCategory(r.Category)
		if !ok {
			continue
		}
		pattern := r.Pattern
		if pattern == "" && strings.Contains(r.Domain, "*") {
			pattern = r.Domain
		}
		if pattern != "" {
			s.wildcards = append(s.wildcards, wildcard{pattern: pattern, re: compileWildcard(pattern), category: cat})
			continue
		}
		if d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(r.Domain)), "www."); d != "" {
			s.byDomain[d] = cat
		}
	}
	return s
}

// compileWildcard anchors the pattern to the whole domain; "*" matches any run
// of characters and every other character is literal.
func compileWildcard(pattern string) *regexp.Regexp {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(pattern)), "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("(?i)^" + strings.Join(parts, ".*") + "$")
}

// CategoryFor resolves in order: bundle id, app name, exact domain, wildcard
// domain patterns in store order.
func (s *Snapshot) CategoryFor(e activity.Event) (activity.Category, bool) {
	if s == nil {
		return "", false
	}
	if e.BundleID != "" {
		if c, ok := s.byBundle[strings.ToLower(e.BundleID)]; ok {
			return c, true
		}
	}
	if c, ok := s.byApp[strings.ToLower(e.AppName)]; ok {
		return c, true
	}
	if domain := e.Domain(); domain != "" {
		return s.DomainCategory(domain)
	}
	return "", false
}

// DomainCategory resolves a bare domain against the exact and wildcard tables.
func (s *Snapshot) DomainCategory(domain string) (activity.Category, bool) {
	if s == nil {
		return "", false
	}
	domain = strings.ToLower(domain)
	if c, ok := s.byDomain[domain]; ok {
		return c, true
	}
	for _, w := range s.wildcards {
		if w.re.MatchString(domain) {
			return w.category, true
		}
	}
	return "", false
}

// Size returns the number of lookup entries in the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.byBundle) + len(s.byApp) + len(s.byDomain) + len(s.wildcards)
}

// Cache holds the current snapshot and swaps in a fresh one on Refresh.
// Readers never observe a partially built snapshot.
type Cache struct {
	store   Store
	logger  logrus.FieldLogger
	current atomic.Pointer[Snapshot]
}

// NewCache creates a cache backed by store. The initial snapshot is empty.
func NewCache(store Store, logger logrus.FieldLogger) *Cache {
	c := &Cache{store: store, logger: logging.OrDiscard(logger)}
	c.current.Store(NewSnapshot(nil, nil))
	return c
}

// Refresh rebuilds the snapshot from the store and returns the snapshot a run
// should use. On failure the previous snapshot is kept and returned along with
// the error, so callers can log and continue.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := c.load(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("category refresh failed, keeping previous snapshot")
		return c.current.Load(), err
	}
	c.current.Store(snap)
	c.logger.WithField("entries", snap.Size()).Debug("category snapshot refreshed")
	return snap, nil
}

// Snapshot returns the current snapshot without touching the store.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	if c.store == nil {
		return nil, fmt.Errorf("no category store configured")
	}
	apps, err := c.store.ListAppCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing app categories: %w", err)
	}
	domains, err := c.store.ListDomainCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing domain categories: %w", err)
	}
	return NewSnapshot(apps, domains), nil
}
