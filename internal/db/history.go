package db

import (
	"database/sql"
	"fmt"
	"time"
)

// LookupRecord is one completed resolution: which device was resolved,
// to what series and version, and how the device ID was obtained. The
// history is an audit trail only; resolutions never read from it.
type LookupRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	DeviceID    string    `json:"device_id"`
	DeviceName  string    `json:"device_name,omitempty"`
	Detected    bool      `json:"detected"`
	Series      string    `json:"series"`
	Version     string    `json:"version,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordLookup inserts a resolution into the history
func (d *DB) RecordLookup(rec *LookupRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	result, err := d.conn.Exec(`
		INSERT INTO lookups (
			session_id, device_id, device_name, detected,
			series, version, branch, download_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID, rec.DeviceID, rec.DeviceName, boolToInt(rec.Detected),
		rec.Series, rec.Version, rec.Branch, rec.DownloadURL, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// RecentLookups returns the most recent resolutions, newest first
func (d *DB) RecentLookups(limit int) ([]*LookupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, device_id, device_name, detected,
		       series, version, branch, download_url, created_at
		FROM lookups
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// LookupsByDevice returns resolutions for one device ID, newest first
func (d *DB) LookupsByDevice(deviceID string, limit int) ([]*LookupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, device_id, device_name, detected,
		       series, version, branch, download_url, created_at
		FROM lookups
		WHERE device_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// LookupCount returns the total number of recorded resolutions
func (d *DB) LookupCount() (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM lookups").Scan(&count)
	return count, err
}

// Prune deletes history entries older than the cutoff and returns how
// many were removed
func (d *DB) Prune(olderThan time.Time) (int64, error) {
	result, err := d.conn.Exec("DELETE FROM lookups WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune lookups: %w", err)
	}
	return result.RowsAffected()
}

func scanLookups(rows *sql.Rows) ([]*LookupRecord, error) {
	var records []*LookupRecord
	for rows.Next() {
		rec := &LookupRecord{}
		var detected int
		err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.DeviceID, &rec.DeviceName, &detected,
			&rec.Series, &rec.Version, &rec.Branch, &rec.DownloadURL, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.Detected = detected != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
