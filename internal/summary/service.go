// Package summary runs the segmentation pipeline for one device and day:
// refresh the category snapshot, aggregate events into sessions, derive
// patterns and hand the result to persistence.
package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/aggregator"
	"github.com/kr4t0z/chrono-server/internal/analyzer"
	"github.com/kr4t0z/chrono-server/internal/boundary"
	"github.com/kr4t0z/chrono-server/internal/category"
	"github.com/kr4t0z/chrono-server/internal/logging"
)

// DateLayout is the layout of day keys.
const DateLayout = "2006-01-02"

// EventSource loads one device's events for a time window, ordered by timestamp.
type EventSource interface {
	ListEvents(ctx context.Context, deviceID string, from, to time.Time) ([]activity.Event, error)
	ListDevices(ctx context.Context, from, to time.Time) ([]string, error)
}

// Sink persists a computed summary, replacing any previous one.
type Sink interface {
	SaveSummary(ctx context.Context, s *activity.Summary) error
}

// Service owns the state shared across runs: the category lookup cache and
// the AI decision cache.
type Service struct {
	categories  *category.Cache
	decisions   *boundary.DecisionCache
	classifier  boundary.Classifier
	suggestions boundary.SuggestionSink
	sink        Sink
	logger      logrus.FieldLogger
	location    *time.Location
	workers     int
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier enables the AI fallback for every run.
func WithClassifier(c boundary.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithSuggestionSink forwards AI category suggestions.
func WithSuggestionSink(sink boundary.SuggestionSink) Option {
	return func(s *Service) { s.suggestions = sink }
}

// WithSink persists every computed summary.
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logging.OrDiscard(l) }
}

// WithLocation sets the zone for time-of-day projection and day windows.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithWorkers bounds parallel device runs in RunDay.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithDecisionCache replaces the decision cache.
func WithDecisionCache(c *boundary.DecisionCache) Option {
	return func(s *Service) { s.decisions = c }
}

// New creates a Service reading categories from store.
func New(store category.Store, opts ...Option) *Service {
	s := &Service{
		logger:   logging.Discard(),
		location: time.UTC,
		workers:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decisions == nil {
		s.decisions = boundary.NewDecisionCache(boundary.DefaultDecisionTTL)
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.workers < 1 {
		s.workers = 1
	}
	s.categories = category.NewCache(store, s.logger)
	return s
}

// Run segments one device's events for one day. Unsorted batches and
// events without timestamps are rejected and nothing is persisted. An empty
// batch or one with a negative duration yields an empty summary.
func (s *Service) Run(ctx context.Context, deviceID, date string, events []activity.Event) (*activity.Summary, error) {
	log := logging.WithRun(s.logger, deviceID, date)

	summary, err := s.compute(ctx, log, deviceID, date, events)
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.SaveSummary(ctx, summary); err != nil {
			return nil, fmt.Errorf("saving summary for %s on %s: %w", deviceID, date, err)
		}
	}
	log.WithFields(logrus.Fields{
		"events":       len(events),
		"sessions":     summary.SessionCount,
		"total_active": summary.TotalActive,
		"total_idle":   summary.TotalIdle,
	}).Info("summary computed")
	return summary, nil
}

func (s *Service) compute(ctx context.Context, log logrus.FieldLogger, deviceID, date string, events []activity.Event) (*activity.Summary, error) {
	if len(events) == 0 {
		log.Debug("no events, empty summary")
		return activity.EmptySummary(deviceID, date), nil
	}

	if err := activity.Validate(events); err != nil {
		if errors.Is(err, activity.ErrNegativeDuration) {
			log.WithError(err).Warn("invalid event duration, empty summary")
			return activity.EmptySummary(deviceID, date), nil
		}
		return nil, fmt.Errorf("rejecting batch for %s on %s: %w", deviceID, date, err)
	}

	// Refresh failures keep the previous snapshot, which may be empty.
	snap, _ := s.categories.Refresh(ctx)

	engine := boundary.New(snap,
		boundary.WithClassifier(s.classifier),
		boundary.WithSuggestionSink(s.suggestions),
		boundary.WithDecisionCache(s.decisions),
		boundary.WithLogger(log),
	)
	agg := aggregator.New(engine, snap, aggregator.WithLogger(log))

	sessions, err := agg.Aggregate(ctx, deviceID, events)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s on %s: %w", deviceID, date, err)
	}
	return analyzer.Summarize(deviceID, date, sessions, s.location), nil
}

// DayWindow returns the [from, to) bounds of date in the service location.
func (s *Service) DayWindow(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// RunDay loads and segments events for each device on date. When devices
// is empty every device with events that day is processed. Runs execute in
// parallel, bounded by the worker count; the first failure cancels the rest.
func (s *Service) RunDay(ctx context.Context, source EventSource, date string, devices []string) ([]*activity.Summary, error) {
	from, to, err := s.DayWindow(date)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		devices, err = source.ListDevices(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("listing devices: %w", err)
		}
	}

	results := make([]*activity.Summary, len(devices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, deviceID := range devices {
		i, deviceID := i, deviceID
		g.Go(func() error {
			events, err := source.ListEvents(gctx, deviceID, from, to)
			if err != nil {
				return fmt.Errorf("loading events for %s: %w", deviceID, err)
			}
			summary, err := s.Run(gctx, deviceID, date, events)
			if err != nil {
				return err
			}
			results[i] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
