package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

// InsertEvents stores events for deviceID in one transaction and returns the
// number of new rows. Re-importing an event already stored is a no-op.
func (db *DB) InsertEvents(ctx context.Context, deviceID string, events []activity.Event) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO events
		(device_id, source, ts, app_name, window_title, bundle_id, document_path, url, is_idle, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i, e := range events {
		device := e.DeviceID
		if device == "" {
			device = deviceID
		}
		res, err := stmt.ExecContext(ctx,
			device, e.Source, formatTime(e.Timestamp), e.AppName, e.WindowTitle,
			e.BundleID, e.DocumentPath, e.URL, e.Idle, e.Duration,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting event %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListEvents returns the events of deviceID with from <= timestamp < to,
// ordered by timestamp and then insertion order.
func (db *DB) ListEvents(ctx context.Context, deviceID string, from, to time.Time) ([]activity.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT device_id, source, ts, app_name, window_title, bundle_id, document_path, url, is_idle, duration
		 FROM events WHERE device_id = ? AND ts >= ? AND ts < ?
		 ORDER BY ts, id`,
		deviceID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []activity.Event
	for rows.Next() {
		var e activity.Event
		var ts string
		if err := rows.Scan(&e.DeviceID, &e.Source, &ts, &e.AppName, &e.WindowTitle,
			&e.BundleID, &e.DocumentPath, &e.URL, &e.Idle, &e.Duration); err != nil {
			return nil, err
		}
		e.Timestamp = parseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListDevices returns the distinct devices with events in [from, to).
func (db *DB) ListDevices(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT DISTINCT device_id FROM events WHERE ts >= ? AND ts < ? ORDER BY device_id",
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var devices []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
