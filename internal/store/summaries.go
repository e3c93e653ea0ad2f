package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

// SaveSummary replaces the stored summary for the summary's device and date.
func (db *DB) SaveSummary(ctx context.Context, s *activity.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO session_summaries
		(device_id, date, total_active, total_idle, session_count, payload, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id, date) DO UPDATE SET
			total_active  = excluded.total_active,
			total_idle    = excluded.total_idle,
			session_count = excluded.session_count,
			payload       = excluded.payload,
			computed_at   = excluded.computed_at`,
		s.DeviceID, s.Date, s.TotalActive, s.TotalIdle, s.SessionCount,
		string(payload), formatTime(time.Now()),
	)
	return err
}

// GetSummary returns the stored summary for deviceID and date, or nil if none exists.
func (db *DB) GetSummary(ctx context.Context, deviceID, date string) (*activity.Summary, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx,
		"SELECT payload FROM session_summaries WHERE device_id = ? AND date = ?",
		deviceID, date,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s activity.Summary
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("decoding summary for %s on %s: %w", deviceID, date, err)
	}
	return &s, nil
}
