package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/output"
)

// maxRenderedContexts caps the contexts shown per session row.
const maxRenderedContexts = 3

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSummary(s *activity.Summary, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}

	fmt.Println(output.Section(fmt.Sprintf("%s · %s", s.DeviceID, s.Date)))
	fmt.Println()
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Active"), output.StyleValue.Render(output.Duration(s.TotalActive)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Idle"), output.StyleValue.Render(output.Duration(s.TotalIdle)))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Sessions"), output.StyleValue.Render(fmt.Sprintf("%d", s.SessionCount)))

	if s.SessionCount == 0 {
		fmt.Println()
		fmt.Println(output.StyleMuted.Render(" No activity recorded."))
		return
	}

	fmt.Println(output.Section("Sessions"))
	fmt.Println()
	tbl := output.NewTable("Time", "Length", "Category", "Apps", "Contexts", "Split").AlignRight(1)
	for _, sess := range s.Sessions {
		span := sess.Start.In(loc).Format("15:04") + "-" + sess.End.In(loc).Format("15:04")
		if !sess.IsActive() {
			tbl.AddRow(span, output.Duration(sess.Duration), output.StyleMuted.Render("idle"), "", "", "")
			continue
		}
		tbl.AddRow(
			span,
			output.Duration(sess.Duration),
			output.Category(sess.Category),
			output.AppList(sess.Apps),
			contextLabels(sess.Contexts),
			boundaryLabel(sess.Boundary),
		)
	}
	tbl.Print()

	renderCategories(s)
	renderPatterns(s.Patterns, loc)
}

func renderCategories(s *activity.Summary) {
	if len(s.ByCategory) == 0 {
		return
	}
	fmt.Println(output.Section("By category"))
	fmt.Println()

	cats := make([]activity.Category, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if s.ByCategory[cats[i]] != s.ByCategory[cats[j]] {
			return s.ByCategory[cats[i]] > s.ByCategory[cats[j]]
		}
		return cats[i] < cats[j]
	})

	tbl := output.NewTable("Category", "Time", "Share").AlignRight(1)
	for _, c := range cats {
		secs := s.ByCategory[c]
		tbl.AddRow(output.Category(c), output.Duration(secs), output.ShareBar(secs, s.TotalActive, 20))
	}
	tbl.Print()
}

func renderPatterns(p activity.Patterns, loc *time.Location) {
	fmt.Println(output.Section("Patterns"))
	fmt.Println()

	if p.LongestFocus != nil {
		lf := p.LongestFocus
		fmt.Printf(" %s %s %s\n",
			output.StyleLabel.Render("Longest focus"),
			output.StyleValue.Render(output.Duration(lf.Duration)),
			output.StyleMuted.Render(fmt.Sprintf("%s-%s %s", lf.Start.In(loc).Format("15:04"), lf.End.In(loc).Format("15:04"), lf.Category)))
	}
	if p.PeakProductiveHour != nil {
		fmt.Printf(" %s %s\n", output.StyleLabel.Render("Peak hour (UTC)"), output.StyleValue.Render(fmt.Sprintf("%02d:00", *p.PeakProductiveHour)))
	}
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Switches / hour"), output.StyleValue.Render(fmt.Sprintf("%.2f", p.ContextSwitchRate)))

	if len(p.IdlePeriods) > 0 {
		fmt.Println()
		tbl := output.NewTable("Idle", "Length", "After").AlignRight(1)
		for _, ip := range p.IdlePeriods {
			tbl.AddRow(ip.Start+"-"+ip.End, output.Duration(ip.Duration), output.Category(ip.After))
		}
		tbl.Print()
	}

	if len(p.DistractionBlocks) > 0 {
		fmt.Println()
		tbl := output.NewTable("Distraction", "Length", "Apps", "Trigger").AlignRight(1)
		for _, db := range p.DistractionBlocks {
			tbl.AddRow(db.Start+"-"+db.End, output.Duration(db.Duration), output.AppList(db.Apps), db.Trigger)
		}
		tbl.Print()
	}
}

func contextLabels(cs []activity.Context) string {
	labels := make([]string, 0, maxRenderedContexts)
	for i, c := range cs {
		if i == maxRenderedContexts {
			labels = append(labels, fmt.Sprintf("+%d", len(cs)-i))
			break
		}
		labels = append(labels, c.Value)
	}
	return strings.Join(labels, ", ")
}

func boundaryLabel(d *activity.BoundaryDecision) string {
	if d == nil {
		return ""
	}
	return output.Confidence(d.Confidence) + " " + output.StyleMuted.Render(d.Reason)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}
