package store

import (
	"context"
	"strings"
	"time"

	"github.com/kr4t0z/chrono-server/internal/boundary"
)

// Suggestion statuses.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
)

// CategorySuggestion is a stored AI category proposal awaiting review.
type CategorySuggestion struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Value       string    `json:"value"`
	Category    string    `json:"category"`
	Confidence  float64   `json:"confidence"`
	Occurrences int       `json:"occurrences"`
	Status      string    `json:"status"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// RecordSuggestion stores a suggestion, or bumps the occurrence count of the
// pending suggestion for the same (kind, value). Accepted suggestions are
// left alone.
func (db *DB) RecordSuggestion(ctx context.Context, s boundary.Suggestion) error {
	now := formatTime(time.Now())
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO category_suggestions (kind, value, category, confidence, first_seen, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (kind, value) DO UPDATE SET
			occurrences = occurrences + 1,
			category    = excluded.category,
			confidence  = excluded.confidence,
			last_seen   = excluded.last_seen
		 WHERE status = 'pending'`,
		string(s.Kind), suggestionKey(string(s.Kind), s.Value), string(s.Category), s.Confidence, now, now,
	)
	return err
}

// ListSuggestions returns suggestions with the given status, most frequent first.
func (db *DB) ListSuggestions(ctx context.Context, status string) ([]CategorySuggestion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, kind, value, category, confidence, occurrences, status, first_seen, last_seen
		 FROM category_suggestions WHERE status = ?
		 ORDER BY occurrences DESC, id`,
		status,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []CategorySuggestion
	for rows.Next() {
		var s CategorySuggestion
		var first, last string
		if err := rows.Scan(&s.ID, &s.Kind, &s.Value, &s.Category, &s.Confidence,
			&s.Occurrences, &s.Status, &first, &last); err != nil {
			return nil, err
		}
		s.FirstSeen = parseTime(first)
		s.LastSeen = parseTime(last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// resolveSuggestion marks the pending suggestion for (kind, value) accepted.
func (db *DB) resolveSuggestion(ctx context.Context, kind, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE category_suggestions SET status = ? WHERE kind = ? AND value = ? AND status = ?",
		SuggestionAccepted, kind, suggestionKey(kind, value), SuggestionPending,
	)
	return err
}

// suggestionKey normalizes domains; app names keep their display casing.
func suggestionKey(kind, value string) string {
	if kind == string(boundary.SuggestDomain) {
		return strings.ToLower(value)
	}
	return value
}
