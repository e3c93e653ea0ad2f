package analyzer

import (
	"time"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

// Summarize builds the day summary for one device: totals, the per-category
// breakdown and the pattern block.
func Summarize(deviceID, date string, sessions []activity.Session, loc *time.Location) *activity.Summary {
	summary := activity.EmptySummary(deviceID, date)
	if len(sessions) == 0 {
		return summary
	}

	summary.Sessions = sessions
	summary.SessionCount = len(sessions)

	for _, s := range sessions {
		switch s.Type {
		case activity.SessionActive:
			summary.TotalActive += s.Duration
			summary.ByCategory[s.Category] += s.Duration
		case activity.SessionIdle:
			summary.TotalIdle += s.Duration
		}
	}

	summary.Patterns = AnalyzePatterns(sessions, loc)
	return summary
}
