package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/boundary"
	"github.com/kr4t0z/chrono-server/internal/category"
)

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chrono.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	// Migrating again is a no-op.
	assert.NoError(t, db.Migrate())
}

func TestEvents_InsertAndList(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	events := []activity.Event{
		{Timestamp: t0, AppName: "Cursor", WindowTitle: "main.go — chrono", Duration: 5},
		{Timestamp: t0.Add(5 * time.Second), AppName: "Firefox", URL: "https://github.com/a/b", Duration: 5},
		{Timestamp: t0.Add(10 * time.Second), AppName: "loginwindow", Idle: true, Duration: 150},
		{DeviceID: "desk", Timestamp: t0, AppName: "Slack", Duration: 5},
	}
	n, err := db.InsertEvents(ctx, "mbp", events)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Re-import is idempotent.
	n, err = db.InsertEvents(ctx, "mbp", events)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := db.ListEvents(ctx, "mbp", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Cursor", got[0].AppName)
	assert.Equal(t, "mbp", got[0].DeviceID)
	assert.Equal(t, t0, got[0].Timestamp)
	assert.Equal(t, "https://github.com/a/b", got[1].URL)
	assert.True(t, got[2].Idle)
	assert.Equal(t, 150, got[2].Duration)

	// The window end is exclusive.
	got, err = db.ListEvents(ctx, "mbp", t0, t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	devices, err := db.ListDevices(ctx, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"desk", "mbp"}, devices)
}

func TestCategories_SetAndList(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{AppName: "Cursor", Category: "development"}))
	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{AppName: "Cursor", Category: "Design"}))
	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{BundleID: "com.tinyspeck.slackmacgap", Category: "communication"}))
	require.NoError(t, db.SetDomainCategory(ctx, category.DomainRule{Domain: "YouTube.com", Category: "distraction"}))
	require.NoError(t, db.SetDomainCategory(ctx, category.DomainRule{Domain: "*.atlassian.net", Category: "development"}))

	assert.Error(t, db.SetAppCategory(ctx, category.AppRule{AppName: "X", Category: "gaming"}))
	assert.Error(t, db.SetAppCategory(ctx, category.AppRule{Category: "other"}))
	assert.Error(t, db.SetDomainCategory(ctx, category.DomainRule{Category: "other"}))

	apps, err := db.ListAppCategories(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, category.AppRule{AppName: "Cursor", Category: "design"}, apps[0])
	assert.Equal(t, "com.tinyspeck.slackmacgap", apps[1].BundleID)

	domains, err := db.ListDomainCategories(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "youtube.com", domains[0].Domain)
	assert.Equal(t, "*.atlassian.net", domains[1].Pattern)

	// The store feeds the lookup cache directly.
	cache := category.NewCache(db, nil)
	snap, err := cache.Refresh(ctx)
	require.NoError(t, err)
	c, ok := snap.DomainCategory("acme.atlassian.net")
	assert.True(t, ok)
	assert.Equal(t, activity.CategoryDevelopment, c)
}

func TestSuggestions_UpsertCountsOccurrences(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	s := boundary.Suggestion{Kind: boundary.SuggestApp, Value: "Notion", Category: activity.CategoryResearch, Confidence: 0.7}
	require.NoError(t, db.RecordSuggestion(ctx, s))
	s.Confidence = 0.8
	require.NoError(t, db.RecordSuggestion(ctx, s))
	require.NoError(t, db.RecordSuggestion(ctx, boundary.Suggestion{
		Kind: boundary.SuggestDomain, Value: "Linear.app", Category: activity.CategoryDevelopment, Confidence: 0.9,
	}))

	pending, err := db.ListSuggestions(ctx, SuggestionPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Notion", pending[0].Value)
	assert.Equal(t, 2, pending[0].Occurrences)
	assert.Equal(t, 0.8, pending[0].Confidence)
	assert.Equal(t, "linear.app", pending[1].Value)
	assert.False(t, pending[0].FirstSeen.IsZero())

	// Setting a category accepts the matching suggestion.
	require.NoError(t, db.SetDomainCategory(ctx, category.DomainRule{Domain: "linear.app", Category: "development"}))
	pending, err = db.ListSuggestions(ctx, SuggestionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	accepted, err := db.ListSuggestions(ctx, SuggestionAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	// Accepted suggestions are not revived.
	require.NoError(t, db.RecordSuggestion(ctx, boundary.Suggestion{
		Kind: boundary.SuggestDomain, Value: "linear.app", Category: activity.CategoryResearch, Confidence: 0.9,
	}))
	accepted, err = db.ListSuggestions(ctx, SuggestionAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, 1, accepted[0].Occurrences)
}

func TestSummaries_SaveReplacesAndGet(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	got, err := db.GetSummary(ctx, "mbp", "2026-10-16")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := activity.EmptySummary("mbp", "2026-10-16")
	s.Sessions = []activity.Session{{
		ID: "id-1", Start: t0, End: t0.Add(time.Minute), Duration: 60,
		Type: activity.SessionActive, Category: activity.CategoryDevelopment,
		Apps: []string{"Cursor"}, Contexts: []activity.Context{{Kind: activity.ContextFile, Value: "main.go"}},
	}}
	s.SessionCount = 1
	s.TotalActive = 60
	s.ByCategory[activity.CategoryDevelopment] = 60
	require.NoError(t, db.SaveSummary(ctx, s))

	s.TotalActive = 120
	require.NoError(t, db.SaveSummary(ctx, s))

	got, err = db.GetSummary(ctx, "mbp", "2026-10-16")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120, got.TotalActive)
	assert.Equal(t, s.Sessions, got.Sessions)
	assert.Equal(t, 60, got.ByCategory[activity.CategoryDevelopment])

	var rows int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM session_summaries").Scan(&rows))
	assert.Equal(t, 1, rows)
}
