// Package aggregator sweeps an ordered event batch once and folds it into
// active and idle sessions, asking the boundary engine at every adjacency
// whether to merge or split.
package aggregator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/category"
	"github.com/kr4t0z/chrono-server/internal/extract"
	"github.com/kr4t0z/chrono-server/internal/logging"
)

const (
	// DefaultMergeThreshold is the minimum decision confidence for a merge.
	DefaultMergeThreshold = 0.7

	// MaxContexts caps the context list of one session.
	MaxContexts = 10
)

// sessionNamespace seeds deterministic session ids.
var sessionNamespace = uuid.MustParse("5b0e2c1a-7f4d-4c38-9a51-3e8d6b0f2c47")

// Decider decides whether two adjacent events belong to the same session.
type Decider interface {
	Decide(ctx context.Context, prev, curr activity.Event) activity.BoundaryDecision
}

// ContextExtractor derives a context label from one event.
type ContextExtractor interface {
	ExtractEvent(e activity.Event) *activity.Context
}

// Aggregator turns one device's ordered events into sessions.
type Aggregator struct {
	decider        Decider
	resolver       category.Resolver
	extractor      ContextExtractor
	logger         logrus.FieldLogger
	mergeThreshold float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithExtractor replaces the default context extractor.
func WithExtractor(x ContextExtractor) Option {
	return func(a *Aggregator) { a.extractor = x }
}

// WithLogger sets the logger used for the decision trail.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Aggregator) { a.logger = logging.OrDiscard(l) }
}

// WithMergeThreshold overrides DefaultMergeThreshold.
func WithMergeThreshold(t float64) Option {
	return func(a *Aggregator) { a.mergeThreshold = t }
}

// New creates an Aggregator. resolver is the run's category snapshot.
func New(decider Decider, resolver category.Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		decider:        decider,
		resolver:       resolver,
		extractor:      extract.New(),
		logger:         logging.Discard(),
		mergeThreshold: DefaultMergeThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = category.NewSnapshot(nil, nil)
	}
	return a
}

// accumulator is the open active session.
type accumulator struct {
	events   []activity.Event
	apps     []string
	seenApps map[string]bool
	contexts []activity.Context
	seenCtx  map[string]bool
	switches int
	category activity.Category
	boundary *activity.BoundaryDecision
}

// Aggregate folds events into time-ordered, non-overlapping sessions. The
// batch must satisfy activity.Validate; a violation is returned unchanged and
// nothing is aggregated.
func (a *Aggregator) Aggregate(ctx context.Context, deviceID string, events []activity.Event) ([]activity.Session, error) {
	if err := activity.Validate(events); err != nil {
		return nil, err
	}

	var (
		sessions []activity.Session
		open     *accumulator
	)

	closeOpen := func() {
		if open != nil {
			sessions = append(sessions, a.finalize(open))
			open = nil
		}
	}

	for _, ev := range events {
		if ev.Idle {
			closeOpen()
			if n := len(sessions); n > 0 && sessions[n-1].Type == activity.SessionIdle {
				extendIdle(&sessions[n-1], ev)
				continue
			}
			sessions = append(sessions, newIdle(ev, sessions))
			continue
		}

		if open == nil {
			open = a.open(ev, nil)
			continue
		}

		last := open.events[len(open.events)-1]
		d := a.decider.Decide(ctx, last, ev)
		merge := d.ShouldMerge && d.Confidence >= a.mergeThreshold

		a.logger.WithFields(logrus.Fields{
			"prev_app":   last.AppName,
			"app":        ev.AppName,
			"merge":      merge,
			"confidence": d.Confidence,
			"reason":     d.Reason,
		}).Debug("boundary decision")

		if merge {
			a.add(open, last, ev, d)
			continue
		}
		closeOpen()
		open = a.open(ev, &d)
	}
	closeOpen()

	clampOverlaps(sessions)
	assignIDs(deviceID, sessions)
	return sessions, nil
}

func (a *Aggregator) open(ev activity.Event, boundary *activity.BoundaryDecision) *accumulator {
	acc := &accumulator{
		seenApps: make(map[string]bool),
		seenCtx:  make(map[string]bool),
		boundary: boundary,
	}
	acc.events = append(acc.events, ev)
	acc.addApp(ev.AppName)
	if c, ok := a.resolver.CategoryFor(ev); ok {
		acc.category = c
	}
	acc.addContext(a.extractor.ExtractEvent(ev))
	return acc
}

func (a *Aggregator) add(acc *accumulator, last, ev activity.Event, d activity.BoundaryDecision) {
	acc.events = append(acc.events, ev)
	acc.addApp(ev.AppName)
	acc.addContext(a.extractor.ExtractEvent(ev))

	if acc.category == "" {
		if c, ok := a.resolver.CategoryFor(ev); ok {
			acc.category = c
		} else if d.Category.Valid() {
			acc.category = d.Category
		}
	}

	if switched(last, ev) {
		acc.switches++
	}
}

// switched reports a context switch between two merged events: a different
// application, or the same application on a different domain.
func switched(prev, curr activity.Event) bool {
	if !strings.EqualFold(prev.AppName, curr.AppName) {
		return true
	}
	if curr.URL == "" {
		return false
	}
	return prev.Domain() != curr.Domain()
}

func (acc *accumulator) addApp(app string) {
	key := strings.ToLower(app)
	if app == "" || acc.seenApps[key] {
		return
	}
	acc.seenApps[key] = true
	acc.apps = append(acc.apps, app)
}

func (acc *accumulator) addContext(c *activity.Context) {
	if c == nil || len(acc.contexts) >= MaxContexts {
		return
	}
	key := strings.ToLower(c.Value)
	if key == "" || acc.seenCtx[key] {
		return
	}
	acc.seenCtx[key] = true
	acc.contexts = append(acc.contexts, *c)
}

func (a *Aggregator) finalize(acc *accumulator) activity.Session {
	first := acc.events[0]
	last := acc.events[len(acc.events)-1]
	end := last.End()

	cat := acc.category
	if cat == "" {
		cat = activity.CategoryOther
	}
	contexts := acc.contexts
	if contexts == nil {
		contexts = []activity.Context{}
	}

	return activity.Session{
		Start:           first.Timestamp,
		End:             end,
		Duration:        seconds(end.Sub(first.Timestamp)),
		Type:            activity.SessionActive,
		Category:        cat,
		Apps:            acc.apps,
		Contexts:        contexts,
		ContextSwitches: acc.switches,
		EventCount:      len(acc.events),
		Boundary:        acc.boundary,
	}
}

// newIdle opens an idle session for ev, recording the category of the
// session that precedes it.
func newIdle(ev activity.Event, before []activity.Session) activity.Session {
	s := activity.Session{
		Start:      ev.Timestamp,
		End:        ev.End(),
		Duration:   ev.Duration,
		Type:       activity.SessionIdle,
		Apps:       []string{},
		Contexts:   []activity.Context{},
		EventCount: 1,
	}
	if n := len(before); n > 0 {
		s.PreviousCategory = before[n-1].Category
	}
	return s
}

// extendIdle coalesces ev into a trailing idle session. Idle duration is the
// sum of its events' durations.
func extendIdle(s *activity.Session, ev activity.Event) {
	if end := ev.End(); end.After(s.End) {
		s.End = end
	}
	s.Duration += ev.Duration
	s.EventCount++
}

// clampOverlaps trims a session end that runs past the next session's start,
// which happens when an event's reported duration overlaps its successor.
// Idle durations stay the sum of their events.
func clampOverlaps(sessions []activity.Session) {
	for i := 1; i < len(sessions); i++ {
		prev := &sessions[i-1]
		next := sessions[i].Start
		if !prev.End.After(next) {
			continue
		}
		prev.End = next
		if prev.Type == activity.SessionActive {
			prev.Duration = seconds(prev.End.Sub(prev.Start))
		}
	}
}

// assignIDs derives each session id from device, start and type. Sessions
// sharing all three (events with equal timestamps) get an ordinal suffix.
func assignIDs(deviceID string, sessions []activity.Session) {
	seen := make(map[string]int, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		name := idName(deviceID, s.Start, s.Type)
		n := seen[name]
		seen[name] = n + 1
		if n > 0 {
			name += "|" + strconv.Itoa(n)
		}
		s.ID = uuid.NewSHA1(sessionNamespace, []byte(name)).String()
	}
}

// SessionID returns the id of the first session of the given type starting
// at start on deviceID.
func SessionID(deviceID string, start time.Time, typ activity.SessionType) string {
	return uuid.NewSHA1(sessionNamespace, []byte(idName(deviceID, start, typ))).String()
}

func idName(deviceID string, start time.Time, typ activity.SessionType) string {
	return deviceID + "|" + start.UTC().Format(time.RFC3339) + "|" + string(typ)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
