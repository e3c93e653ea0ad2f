// Package activity defines the data model shared by the segmentation engine:
// raw activity events, extracted contexts, boundary decisions, sessions and
// the per-day summary handed to persistence.
package activity

import (
	"encoding/json"
	"time"
)

// DefaultEventDuration is applied to events that arrive without a duration.
const DefaultEventDuration = 5

// Event is a single activity sample reported by a device collector.
// Events are owned by the caller and never mutated by the engine.
type Event struct {
	DeviceID     string    `json:"device_id"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	AppName      string    `json:"app_name"`
	WindowTitle  string    `json:"window_title"`
	BundleID     string    `json:"bundle_id,omitempty"`
	DocumentPath string    `json:"document_path,omitempty"`
	URL          string    `json:"url,omitempty"`
	Idle         bool      `json:"is_idle"`
	Duration     int       `json:"duration"` // seconds
}

// UnmarshalJSON decodes an event, applying DefaultEventDuration when the
// duration field is absent or null. Timestamps are normalized to UTC at
// second precision.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	raw := struct {
		*alias
		Duration *int `json:"duration"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Duration = DefaultEventDuration
	if raw.Duration != nil {
		e.Duration = *raw.Duration
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Second)
	return nil
}

// End returns the instant the event stopped covering, i.e. timestamp plus duration.
func (e Event) End() time.Time {
	return e.Timestamp.Add(time.Duration(e.Duration) * time.Second)
}

// Domain returns the normalized host of the event URL, or "" when the event
// carries no parseable URL.
func (e Event) Domain() string {
	return DomainOf(e.URL)
}

// IsBrowser reports whether the event was produced by a web browser.
func (e Event) IsBrowser() bool {
	return IsBrowser(e.AppName)
}

// ContextKind tags what an extracted context refers to.
type ContextKind string

const (
	ContextFile     ContextKind = "file"
	ContextURL      ContextKind = "url"
	ContextCommand  ContextKind = "command"
	ContextDocument ContextKind = "document"
	ContextProject  ContextKind = "project"
	ContextOther    ContextKind = "other"
)

// Context is a short human-meaningful label pulled from a window title or URL.
type Context struct {
	Kind   ContextKind `json:"kind"`
	Value  string      `json:"value"`
	Detail string      `json:"detail,omitempty"`
}

// BoundaryDecision is the verdict for one adjacency between two events.
type BoundaryDecision struct {
	ShouldMerge bool     `json:"shouldMerge"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	Category    Category `json:"category,omitempty"`
}

// SessionType distinguishes active work from idle time.
type SessionType string

const (
	SessionActive SessionType = "active"
	SessionIdle   SessionType = "idle"
)

// Session is a contiguous, non-overlapping block of activity.
type Session struct {
	ID               string      `json:"id"`
	Start            time.Time   `json:"start"`
	End              time.Time   `json:"end"`
	Duration         int         `json:"duration"` // seconds
	Type             SessionType `json:"type"`
	Category         Category    `json:"category,omitempty"`
	Apps             []string    `json:"apps"`
	Contexts         []Context   `json:"contexts"`
	ContextSwitches  int         `json:"contextSwitches"`
	PreviousCategory Category    `json:"previousCategory,omitempty"`
	EventCount       int         `json:"eventCount"`

	// Boundary is the decision that split this session from the active
	// session before it. Nil for the first session and after idle time.
	Boundary *BoundaryDecision `json:"boundary,omitempty"`
}

// IsActive reports whether the session is an active session.
func (s Session) IsActive() bool {
	return s.Type == SessionActive
}

// IsFocus reports whether the session counts as focused work: active and not
// categorized as a distraction.
func (s Session) IsFocus() bool {
	return s.Type == SessionActive && s.Category != CategoryDistraction
}

// SessionRef is a compact reference to one session inside the patterns block.
type SessionRef struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"`
	Category Category  `json:"category,omitempty"`
	Apps     []string  `json:"apps,omitempty"`
}

// IdlePeriod is an idle session projected to local time of day.
type IdlePeriod struct {
	Start    string   `json:"start"` // HH:MM local
	End      string   `json:"end"`
	Duration int      `json:"duration"`
	After    Category `json:"after,omitempty"`
}

// DistractionBlock is a distraction session with its inferred trigger.
type DistractionBlock struct {
	Start    string   `json:"start"` // HH:MM local
	End      string   `json:"end"`
	Duration int      `json:"duration"`
	Apps     []string `json:"apps,omitempty"`
	Trigger  string   `json:"trigger"`
}

// Patterns holds behavioral statistics derived from a finalized session list.
type Patterns struct {
	LongestFocus       *SessionRef        `json:"longestFocus"`
	IdlePeriods        []IdlePeriod       `json:"idlePeriods"`
	DistractionBlocks  []DistractionBlock `json:"distractionBlocks"`
	ContextSwitchRate  float64            `json:"contextSwitchRate"` // switches per active hour
	PeakProductiveHour *int               `json:"peakProductiveHour"`
}

// Summary is the per-device, per-day output of one aggregation run. Field
// names and units are consumed verbatim by downstream prompt builders.
type Summary struct {
	DeviceID     string           `json:"deviceId"`
	Date         string           `json:"date"` // YYYY-MM-DD
	TotalActive  int              `json:"totalActive"`
	TotalIdle    int              `json:"totalIdle"`
	SessionCount int              `json:"sessionCount"`
	Sessions     []Session        `json:"sessions"`
	Patterns     Patterns         `json:"patterns"`
	ByCategory   map[Category]int `json:"byCategory"`
}

// EmptySummary returns a summary with no sessions for the given device and date.
func EmptySummary(deviceID, date string) *Summary {
	return &Summary{
		DeviceID:   deviceID,
		Date:       date,
		Sessions:   []Session{},
		Patterns:   Patterns{IdlePeriods: []IdlePeriod{}, DistractionBlocks: []DistractionBlock{}},
		ByCategory: map[Category]int{},
	}
}
