package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/category"
)

// ListAppCategories returns every app mapping in insertion order.
func (db *DB) ListAppCategories(ctx context.Context) ([]category.AppRule, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT app_name, bundle_id, category FROM app_categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []category.AppRule
	for rows.Next() {
		var r category.AppRule
		if err := rows.Scan(&r.AppName, &r.BundleID, &r.Category); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ListDomainCategories returns every domain mapping in insertion order, which
// is also the order wildcard patterns are tried in.
func (db *DB) ListDomainCategories(ctx context.Context) ([]category.DomainRule, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT domain, pattern, category FROM domain_categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []category.DomainRule
	for rows.Next() {
		var r category.DomainRule
		if err := rows.Scan(&r.Domain, &r.Pattern, &r.Category); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SetAppCategory creates or updates an app mapping and closes any pending
// suggestion for the same app.
func (db *DB) SetAppCategory(ctx context.Context, r category.AppRule) error {
	if r.AppName == "" && r.BundleID == "" {
		return fmt.Errorf("app mapping needs an app name or bundle id")
	}
	if err := checkCategory(r.Category); err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO app_categories (app_name, bundle_id, category) VALUES (?, ?, ?)
		 ON CONFLICT (app_name, bundle_id) DO UPDATE SET category = excluded.category`,
		r.AppName, r.BundleID, strings.ToLower(r.Category),
	); err != nil {
		return err
	}
	if r.AppName == "" {
		return nil
	}
	return db.resolveSuggestion(ctx, "app", r.AppName)
}

// SetDomainCategory creates or updates a domain mapping. A domain containing
// "*" is stored as a wildcard pattern.
func (db *DB) SetDomainCategory(ctx context.Context, r category.DomainRule) error {
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	if r.Pattern == "" && strings.Contains(r.Domain, "*") {
		r.Pattern = r.Domain
	}
	if r.Domain == "" && r.Pattern == "" {
		return fmt.Errorf("domain mapping needs a domain or pattern")
	}
	if err := checkCategory(r.Category); err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO domain_categories (domain, pattern, category) VALUES (?, ?, ?)
		 ON CONFLICT (domain, pattern) DO UPDATE SET category = excluded.category`,
		r.Domain, r.Pattern, strings.ToLower(r.Category),
	); err != nil {
		return err
	}
	if r.Pattern != "" {
		return nil
	}
	return db.resolveSuggestion(ctx, "domain", r.Domain)
}

func checkCategory(c string) error {
	if _, ok := activity.ParseCategory(c); !ok {
		return fmt.Errorf("unknown category %q", c)
	}
	return nil
}
