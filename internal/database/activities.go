package database

import "database/sql"

// InsertActivity inserts a cached activity. Returns false when the activity
// ID is already present.
func (db *DB) InsertActivity(a Activity) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO activities (id, created_at, status, progress, media_id, title_english, title_romaji)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CreatedAt, a.Status, a.Progress, a.MediaID, a.TitleEnglish, a.TitleRomaji,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Activities returns all cached activities in ascending ID order, the order
// the reconstruction consumes them in.
func (db *DB) Activities() ([]Activity, error) {
	rows, err := db.conn.Query(
		`SELECT id, created_at, status, progress, media_id, title_english, title_romaji, fetched_at
		FROM activities ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// MaxActivityID returns the highest cached activity ID, 0 when the cache is
// empty. Incremental syncs page down to this ID and stop.
func (db *DB) MaxActivityID() (int64, error) {
	var id sql.NullInt64
	if err := db.conn.QueryRow("SELECT MAX(id) FROM activities").Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// GetStats returns aggregate cache statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	row := db.conn.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT media_id),
		COALESCE(SUM(status = 'COMPLETED'), 0), COALESCE(MAX(id), 0) FROM activities`)
	if err := row.Scan(&s.TotalActivities, &s.DistinctTitles, &s.Completed, &s.MaxActivityID); err != nil {
		return nil, err
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM export_runs").Scan(&s.ExportRuns); err != nil {
		return nil, err
	}

	return s, nil
}

// InsertExportRun records a completed export.
func (db *DB) InsertExportRun(username, outputPath string, activityCount, eventCount int) error {
	_, err := db.conn.Exec(
		`INSERT INTO export_runs (username, output_path, activity_count, event_count)
		VALUES (?, ?, ?, ?)`,
		username, outputPath, activityCount, eventCount,
	)
	return err
}

// RecentExportRuns returns the most recent export runs, newest first.
func (db *DB) RecentExportRuns(limit int) ([]ExportRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, username, output_path, activity_count, event_count, generated_at
		FROM export_runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ExportRun
	for rows.Next() {
		var r ExportRun
		if err := rows.Scan(&r.ID, &r.Username, &r.OutputPath, &r.ActivityCount, &r.EventCount, &r.GeneratedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.Status, &a.Progress, &a.MediaID, &a.TitleEnglish, &a.TitleRomaji, &a.FetchedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
