package summary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/category"
	"github.com/kr4t0z/chrono-server/internal/classifier"
	"github.com/kr4t0z/chrono-server/internal/store"
)

const date = "2026-10-16"

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func ev(app string, offset, duration int) activity.Event {
	return activity.Event{AppName: app, Timestamp: t0.Add(time.Duration(offset) * time.Second), Duration: duration}
}

func openStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{AppName: "Cursor", Category: "development"}))
	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{AppName: "Ghostty", Category: "development"}))
	require.NoError(t, db.SetAppCategory(ctx, category.AppRule{AppName: "Spotify", Category: "distraction"}))
	return db
}

func workday() []activity.Event {
	idle := ev("loginwindow", 600, 150)
	idle.Idle = true
	return []activity.Event{
		ev("Cursor", 0, 300),
		ev("Ghostty", 300, 300),
		idle,
		ev("Spotify", 750, 60),
	}
}

type failingStore struct{}

func (failingStore) ListAppCategories(context.Context) ([]category.AppRule, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) ListDomainCategories(context.Context) ([]category.DomainRule, error) {
	return nil, errors.New("connection refused")
}

type countingClassifier struct {
	calls atomic.Int32
}

func (c *countingClassifier) Classify(context.Context, string, string) (*classifier.Classification, error) {
	c.calls.Add(1)
	return &classifier.Classification{SameSession: true, Confidence: 0.9, Reason: "same task", SuggestedCategory: "research"}, nil
}

func TestRun_ComputesAndPersists(t *testing.T) {
	db := openStore(t)
	svc := New(db, WithSink(db))

	s, err := svc.Run(context.Background(), "mbp", date, workday())
	require.NoError(t, err)

	require.Equal(t, 3, s.SessionCount)
	assert.Equal(t, activity.CategoryDevelopment, s.Sessions[0].Category)
	assert.Equal(t, []string{"Cursor", "Ghostty"}, s.Sessions[0].Apps)
	assert.Equal(t, activity.SessionIdle, s.Sessions[1].Type)
	assert.Equal(t, activity.CategoryDevelopment, s.Sessions[1].PreviousCategory)
	assert.Equal(t, 660, s.TotalActive)
	assert.Equal(t, 150, s.TotalIdle)
	assert.Equal(t, 600, s.ByCategory[activity.CategoryDevelopment])
	assert.Equal(t, 60, s.ByCategory[activity.CategoryDistraction])

	require.Len(t, s.Patterns.DistractionBlocks, 1)
	assert.Equal(t, "after idle", s.Patterns.DistractionBlocks[0].Trigger)
	require.NotNil(t, s.Patterns.PeakProductiveHour)
	assert.Equal(t, 9, *s.Patterns.PeakProductiveHour)

	stored, err := db.GetSummary(context.Background(), "mbp", date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, s.Sessions, stored.Sessions)
}

func TestRun_Idempotent(t *testing.T) {
	db := openStore(t)
	svc := New(db)

	first, err := svc.Run(context.Background(), "mbp", date, workday())
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), "mbp", date, workday())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_EmptyBatch(t *testing.T) {
	svc := New(openStore(t))
	s, err := svc.Run(context.Background(), "mbp", date, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.SessionCount)
	assert.Empty(t, s.Sessions)
}

func TestRun_NegativeDurationYieldsEmptySummary(t *testing.T) {
	svc := New(openStore(t))
	events := workday()
	events[1].Duration = -5

	s, err := svc.Run(context.Background(), "mbp", date, events)
	require.NoError(t, err)
	assert.Equal(t, 0, s.SessionCount)
}

func TestRun_UnsortedIsRejectedAndNotPersisted(t *testing.T) {
	db := openStore(t)
	svc := New(db, WithSink(db))
	events := workday()
	events[0], events[1] = events[1], events[0]

	_, err := svc.Run(context.Background(), "mbp", date, events)
	require.Error(t, err)
	assert.True(t, errors.Is(err, activity.ErrUnsorted))

	stored, err := db.GetSummary(context.Background(), "mbp", date)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRun_CategoryStoreDownDegrades(t *testing.T) {
	svc := New(failingStore{})
	s, err := svc.Run(context.Background(), "mbp", date, []activity.Event{
		ev("Notion", 0, 5),
		ev("Linear", 5, 5),
	})
	require.NoError(t, err)
	// Nothing resolves and no classifier is configured: conservative splits.
	assert.Equal(t, 2, s.SessionCount)
	assert.Equal(t, activity.CategoryOther, s.Sessions[0].Category)
}

func TestRun_ClassifierAndSuggestions(t *testing.T) {
	db := openStore(t)
	fc := &countingClassifier{}
	svc := New(db, WithClassifier(fc), WithSuggestionSink(db))

	events := []activity.Event{ev("Notion", 0, 5), ev("Linear", 5, 5), ev("Notion", 10, 5), ev("Linear", 15, 5)}
	s, err := svc.Run(context.Background(), "mbp", date, events)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SessionCount)
	assert.Equal(t, activity.CategoryResearch, s.Sessions[0].Category)

	// notion|linear and linear|notion are distinct adjacencies.
	assert.Equal(t, int32(2), fc.calls.Load())

	// The decision cache outlives the run.
	_, err = svc.Run(context.Background(), "mbp", date, events)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fc.calls.Load())

	pending, err := db.ListSuggestions(context.Background(), store.SuggestionPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "research", pending[0].Category)
}

func TestRunDay_AllDevicesInParallel(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	for _, device := range []string{"mbp", "desk", "laptop"} {
		_, err := db.InsertEvents(ctx, device, workday())
		require.NoError(t, err)
	}
	// Outside the day window.
	_, err := db.InsertEvents(ctx, "mbp", []activity.Event{ev("Cursor", 24*3600, 5)})
	require.NoError(t, err)

	svc := New(db, WithSink(db), WithWorkers(2))
	summaries, err := svc.RunDay(ctx, db, date, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	for _, s := range summaries {
		assert.Equal(t, 3, s.SessionCount, s.DeviceID)
		stored, err := db.GetSummary(ctx, s.DeviceID, date)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	}
	assert.Equal(t, "desk", summaries[0].DeviceID)
}

type brokenSource struct {
	mu    sync.Mutex
	calls int
}

func (b *brokenSource) ListEvents(context.Context, string, time.Time, time.Time) ([]activity.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return nil, errors.New("disk I/O error")
}

func (b *brokenSource) ListDevices(context.Context, time.Time, time.Time) ([]string, error) {
	return nil, nil
}

func TestRunDay_PropagatesLoadErrors(t *testing.T) {
	svc := New(openStore(t))
	_, err := svc.RunDay(context.Background(), &brokenSource{}, date, []string{"mbp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading events for mbp")
}

func TestRunDay_BadDate(t *testing.T) {
	svc := New(openStore(t))
	_, err := svc.RunDay(context.Background(), &brokenSource{}, "16/10/2026", nil)
	assert.Error(t, err)
}

func TestDayWindow_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	svc := New(nil, WithLocation(loc))
	from, to, err := svc.DayWindow(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 5, 0, 0, 0, time.UTC), from.UTC())
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}
