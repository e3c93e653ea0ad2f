// Package boundary decides whether two temporally adjacent activity events
// belong to the same session. Decisions come from fixed heuristics first,
// then category lookups, then an optional AI classifier whose verdicts are
// cached. Every path yields a decision; the engine never fails.
package boundary

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/category"
	"github.com/kr4t0z/chrono-server/internal/classifier"
	"github.com/kr4t0z/chrono-server/internal/logging"
)

const (
	// DefaultLargeGap is the gap in seconds above which events never merge.
	DefaultLargeGap = 300

	// DefaultIdleThreshold is the idle duration in seconds that forces a split.
	DefaultIdleThreshold = 120

	// SuggestionConfidence is the minimum AI confidence for forwarding a
	// category suggestion.
	SuggestionConfidence = 0.6

	// ConservativeConfidence is the confidence of the fallback split.
	ConservativeConfidence = 0.5

	// ConservativeReason explains the fallback split.
	ConservativeReason = "uncategorized — conservative split"

	maxDescribedTitle = 59
)

// Classifier is the AI classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, prevDescription, currDescription string) (*classifier.Classification, error)
}

// SuggestionKind says whether a suggestion targets an app or a domain.
type SuggestionKind string

const (
	SuggestApp    SuggestionKind = "app"
	SuggestDomain SuggestionKind = "domain"
)

// Suggestion is a category proposal forwarded for user review.
type Suggestion struct {
	Kind       SuggestionKind
	Value      string
	Category   activity.Category
	Confidence float64
}

// SuggestionSink records category suggestions. Implementations should be
// idempotent per (Kind, Value).
type SuggestionSink interface {
	RecordSuggestion(ctx context.Context, s Suggestion) error
}

// Engine evaluates boundary decisions for one aggregation run. The resolver is
// the run's category snapshot; the decision cache may be shared across runs.
type Engine struct {
	resolver      category.Resolver
	classifier    Classifier
	suggestions   SuggestionSink
	cache         *DecisionCache
	logger        logrus.FieldLogger
	largeGap      int
	idleThreshold int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier enables the AI fallback.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithSuggestionSink forwards confident AI category suggestions to s.
func WithSuggestionSink(s SuggestionSink) Option {
	return func(e *Engine) { e.suggestions = s }
}

// WithDecisionCache shares a decision cache across engines.
func WithDecisionCache(c *DecisionCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logging.OrDiscard(l) }
}

// WithLargeGap overrides the large-gap threshold in seconds.
func WithLargeGap(seconds int) Option {
	return func(e *Engine) { e.largeGap = seconds }
}

// WithIdleThreshold overrides the idle threshold in seconds.
func WithIdleThreshold(seconds int) Option {
	return func(e *Engine) { e.idleThreshold = seconds }
}

// New creates an Engine resolving categories through resolver.
func New(resolver category.Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver:      resolver,
		logger:        logging.Discard(),
		largeGap:      DefaultLargeGap,
		idleThreshold: DefaultIdleThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = category.NewSnapshot(nil, nil)
	}
	if e.cache == nil {
		e.cache = NewDecisionCache(DefaultDecisionTTL)
	}
	return e
}

// Decide compares two adjacent events. Rules are applied in order and the
// first match wins.
func (e *Engine) Decide(ctx context.Context, prev, curr activity.Event) activity.BoundaryDecision {
	gap := int(curr.Timestamp.Sub(prev.Timestamp).Seconds())
	if gap > e.largeGap {
		return activity.BoundaryDecision{
			Confidence: 1.0,
			Reason:     fmt.Sprintf("Time gap of %ds exceeds %s threshold", gap, describeThreshold(e.largeGap)),
		}
	}

	if prev.Idle && prev.Duration > e.idleThreshold {
		return activity.BoundaryDecision{
			Confidence: 1.0,
			Reason:     fmt.Sprintf("Idle for %ds exceeds %s threshold", prev.Duration, describeThreshold(e.idleThreshold)),
		}
	}

	if strings.EqualFold(prev.AppName, curr.AppName) {
		if d, ok := e.sameApp(prev, curr); ok {
			return d
		}
		return e.compareCategories(ctx, prev, curr)
	}

	if group := relatedAppGroup(prev.AppName, curr.AppName); group != "" {
		pc, pok := e.resolver.CategoryFor(prev)
		cc, cok := e.resolver.CategoryFor(curr)
		if pok && cok && pc == cc {
			return activity.BoundaryDecision{
				ShouldMerge: true,
				Confidence:  0.9,
				Reason:      fmt.Sprintf("Related apps in same category (%s)", pc),
				Category:    pc,
			}
		}
		return activity.BoundaryDecision{
			ShouldMerge: true,
			Confidence:  0.75,
			Reason:      fmt.Sprintf("Related apps (%s group)", group),
		}
	}

	return e.compareCategories(ctx, prev, curr)
}

// sameApp handles two events from the same application. The bool is false
// when the events are browser pages on unrelated domains and the decision
// must come from category comparison.
func (e *Engine) sameApp(prev, curr activity.Event) (activity.BoundaryDecision, bool) {
	if !prev.IsBrowser() || prev.URL == "" || curr.URL == "" {
		return activity.BoundaryDecision{ShouldMerge: true, Confidence: 1.0, Reason: "Same app"}, true
	}

	pd, cd := prev.Domain(), curr.Domain()
	switch {
	case pd == cd:
		return activity.BoundaryDecision{ShouldMerge: true, Confidence: 1.0, Reason: "Same app and domain"}, true
	case relatedDomains(pd, cd):
		return activity.BoundaryDecision{
			ShouldMerge: true,
			Confidence:  0.9,
			Reason:      fmt.Sprintf("Related domains (%s, %s)", pd, cd),
		}, true
	}
	return activity.BoundaryDecision{}, false
}

func (e *Engine) compareCategories(ctx context.Context, prev, curr activity.Event) activity.BoundaryDecision {
	pc, pok := e.resolver.CategoryFor(prev)
	cc, cok := e.resolver.CategoryFor(curr)

	if pok && cok {
		if pc == cc {
			return activity.BoundaryDecision{
				ShouldMerge: true,
				Confidence:  0.85,
				Reason:      fmt.Sprintf("Same category (%s)", pc),
				Category:    pc,
			}
		}
		return activity.BoundaryDecision{
			Confidence: 0.9,
			Reason:     fmt.Sprintf("Different categories (%s, %s)", pc, cc),
		}
	}

	return e.classify(ctx, prev, curr, !pok, !cok)
}

// classify runs the AI fallback. prevUnknown and currUnknown mark which
// sides lacked a category and may receive a suggestion.
func (e *Engine) classify(ctx context.Context, prev, curr activity.Event, prevUnknown, currUnknown bool) activity.BoundaryDecision {
	if e.classifier == nil {
		return conservative()
	}

	key := CacheKey(prev, curr)
	if d, ok := e.cache.Get(key); ok {
		return d
	}

	result, err := e.classifier.Classify(ctx, Describe(prev), Describe(curr))
	if err != nil {
		e.logger.WithError(err).WithField("cache_key", key).Warn("AI classification failed, splitting")
		return conservative()
	}

	confidence := result.Confidence
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		confidence = classifier.DefaultConfidence
	}
	suggested, valid := activity.ParseCategory(result.SuggestedCategory)
	if !valid {
		suggested = ""
	}

	reason := "AI classification"
	if result.Reason != "" {
		reason = "AI: " + result.Reason
	}
	d := activity.BoundaryDecision{
		ShouldMerge: result.SameSession,
		Confidence:  confidence,
		Reason:      reason,
		Category:    suggested,
	}
	e.cache.Set(key, d)

	if confidence >= SuggestionConfidence && suggested != "" {
		if prevUnknown {
			e.suggest(ctx, prev, suggested, confidence)
		}
		if currUnknown && sideKey(curr) != sideKey(prev) {
			e.suggest(ctx, curr, suggested, confidence)
		}
	}
	return d
}

func (e *Engine) suggest(ctx context.Context, ev activity.Event, cat activity.Category, confidence float64) {
	if e.suggestions == nil {
		return
	}
	s := Suggestion{Kind: SuggestApp, Value: ev.AppName, Category: cat, Confidence: confidence}
	if domain := ev.Domain(); ev.IsBrowser() && domain != "" {
		s.Kind = SuggestDomain
		s.Value = domain
	}
	if err := e.suggestions.RecordSuggestion(ctx, s); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"kind":  s.Kind,
			"value": s.Value,
		}).Warn("recording category suggestion failed")
	}
}

func conservative() activity.BoundaryDecision {
	return activity.BoundaryDecision{
		Confidence: ConservativeConfidence,
		Reason:     ConservativeReason,
	}
}

// CacheKey derives the decision-cache key for an adjacency: the domain for
// browser events with a URL, the lowercased app name otherwise.
func CacheKey(prev, curr activity.Event) string {
	return sideKey(prev) + "|" + sideKey(curr)
}

func sideKey(e activity.Event) string {
	if e.IsBrowser() {
		if d := e.Domain(); d != "" {
			return d
		}
	}
	return strings.ToLower(e.AppName)
}

// Describe renders an event as one compact line for the classifier.
func Describe(e activity.Event) string {
	var sb strings.Builder
	sb.WriteString("App: ")
	sb.WriteString(e.AppName)
	if d := e.Domain(); d != "" {
		sb.WriteString(" | Domain: ")
		sb.WriteString(d)
	}
	if title := strings.TrimSpace(e.WindowTitle); title != "" {
		r := []rune(title)
		if len(r) > maxDescribedTitle {
			r = r[:maxDescribedTitle]
		}
		sb.WriteString(" | Title: ")
		sb.WriteString(string(r))
	}
	return sb.String()
}

func describeThreshold(seconds int) string {
	if seconds%60 == 0 {
		return fmt.Sprintf("%d-minute", seconds/60)
	}
	return fmt.Sprintf("%ds", seconds)
}
