// Package analyzer derives behavioral patterns and day totals from a
// finalized session list.
package analyzer

import (
	"math"
	"time"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

const (
	// MaxIdlePeriods caps the idle periods reported per day.
	MaxIdlePeriods = 10

	// MaxDistractionBlocks caps the distraction blocks reported per day.
	MaxDistractionBlocks = 10

	// TriggerStartOfTracking is the trigger of a distraction that opens the day.
	TriggerStartOfTracking = "start of tracking"

	// TriggerAfterIdle is the trigger of a distraction that follows idle time.
	TriggerAfterIdle = "after idle"

	clockLayout = "15:04"
)

// AnalyzePatterns computes the pattern block for sessions. Times of day are
// projected into loc; nil means UTC. The peak hour is always computed in UTC.
func AnalyzePatterns(sessions []activity.Session, loc *time.Location) activity.Patterns {
	if loc == nil {
		loc = time.UTC
	}

	return activity.Patterns{
		LongestFocus:       longestFocus(sessions),
		IdlePeriods:        idlePeriods(sessions, loc),
		DistractionBlocks:  distractionBlocks(sessions, loc),
		ContextSwitchRate:  contextSwitchRate(sessions),
		PeakProductiveHour: peakProductiveHour(sessions),
	}
}

// longestFocus returns the longest active, non-distraction session. Ties
// keep the earliest.
func longestFocus(sessions []activity.Session) *activity.SessionRef {
	var best *activity.Session
	for i := range sessions {
		s := &sessions[i]
		if !s.IsFocus() {
			continue
		}
		if best == nil || s.Duration > best.Duration {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	return &activity.SessionRef{
		ID:       best.ID,
		Start:    best.Start,
		End:      best.End,
		Duration: best.Duration,
		Category: best.Category,
		Apps:     best.Apps,
	}
}

func idlePeriods(sessions []activity.Session, loc *time.Location) []activity.IdlePeriod {
	periods := []activity.IdlePeriod{}
	for _, s := range sessions {
		if s.Type != activity.SessionIdle {
			continue
		}
		if len(periods) == MaxIdlePeriods {
			break
		}
		periods = append(periods, activity.IdlePeriod{
			Start:    s.Start.In(loc).Format(clockLayout),
			End:      s.End.In(loc).Format(clockLayout),
			Duration: s.Duration,
			After:    s.PreviousCategory,
		})
	}
	return periods
}

func distractionBlocks(sessions []activity.Session, loc *time.Location) []activity.DistractionBlock {
	blocks := []activity.DistractionBlock{}
	for i, s := range sessions {
		if !s.IsActive() || s.Category != activity.CategoryDistraction {
			continue
		}
		if len(blocks) == MaxDistractionBlocks {
			break
		}
		blocks = append(blocks, activity.DistractionBlock{
			Start:    s.Start.In(loc).Format(clockLayout),
			End:      s.End.In(loc).Format(clockLayout),
			Duration: s.Duration,
			Apps:     s.Apps,
			Trigger:  trigger(sessions, i),
		})
	}
	return blocks
}

// trigger describes what came right before sessions[i] in the full list.
func trigger(sessions []activity.Session, i int) string {
	if i == 0 {
		return TriggerStartOfTracking
	}
	prev := sessions[i-1]
	if prev.Type == activity.SessionIdle {
		return TriggerAfterIdle
	}
	return "after " + string(prev.Category)
}

// contextSwitchRate is switches per active hour, rounded to two decimals.
func contextSwitchRate(sessions []activity.Session) float64 {
	var switches, seconds int
	for _, s := range sessions {
		if !s.IsActive() {
			continue
		}
		switches += s.ContextSwitches
		seconds += s.Duration
	}
	if seconds <= 0 {
		return 0
	}
	rate := float64(switches) / (float64(seconds) / 3600)
	return math.Round(rate*100) / 100
}

// peakProductiveHour returns the UTC hour whose focus sessions, bucketed by
// start hour, add up to the most time. Ties keep the hour seen first.
func peakProductiveHour(sessions []activity.Session) *int {
	var totals [24]int
	var order []int
	for _, s := range sessions {
		if !s.IsFocus() || s.Duration <= 0 {
			continue
		}
		h := s.Start.UTC().Hour()
		if totals[h] == 0 {
			order = append(order, h)
		}
		totals[h] += s.Duration
	}
	if len(order) == 0 {
		return nil
	}

	peak := order[0]
	for _, h := range order[1:] {
		if totals[h] > totals[peak] {
			peak = h
		}
	}
	return &peak
}
