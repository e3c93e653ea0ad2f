package analyzer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

func TestSummarize_Totals(t *testing.T) {
	s := Summarize("mbp", "2026-10-16", sampleDay(), nil)

	if s.SessionCount != 7 {
		t.Errorf("session count = %d, want 7", s.SessionCount)
	}
	if want := (50 + 20 + 10 + 30 + 90) * 60; s.TotalActive != want {
		t.Errorf("total active = %d, want %d", s.TotalActive, want)
	}
	if want := (15 + 5) * 60; s.TotalIdle != want {
		t.Errorf("total idle = %d, want %d", s.TotalIdle, want)
	}

	wantByCategory := map[activity.Category]int{
		activity.CategoryDevelopment:   50 * 60,
		activity.CategoryDistraction:   30 * 60,
		activity.CategoryCommunication: 30 * 60,
		activity.CategoryDesign:        90 * 60,
	}
	if len(s.ByCategory) != len(wantByCategory) {
		t.Errorf("byCategory has %d entries, want %d", len(s.ByCategory), len(wantByCategory))
	}
	for cat, want := range wantByCategory {
		if got := s.ByCategory[cat]; got != want {
			t.Errorf("byCategory[%s] = %d, want %d", cat, got, want)
		}
	}
	if s.Patterns.LongestFocus == nil {
		t.Error("expected patterns to be computed")
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("mbp", "2026-10-16", nil, nil)
	if s.SessionCount != 0 || s.TotalActive != 0 || s.TotalIdle != 0 {
		t.Errorf("expected zero totals, got %+v", s)
	}
	if s.Sessions == nil {
		t.Error("expected non-nil session list")
	}
}

func TestSummarize_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Summarize("mbp", "2026-10-16", sampleDay(), nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{
		`"date":"2026-10-16"`, `"totalActive":`, `"totalIdle":`, `"sessionCount":7`,
		`"sessions":`, `"patterns":`, `"byCategory":`, `"longestFocus":`,
		`"idlePeriods":`, `"distractionBlocks":`, `"contextSwitchRate":`, `"peakProductiveHour":`,
		`"start":"2026-10-16T09:00:00Z"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("summary JSON missing %s", field)
		}
	}
}
