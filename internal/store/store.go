// Package store persists per-frame pipeline summaries to SQLite for later
// inspection through the monitor and the cloud-scan tool.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
)

// schema.sql defines the session and per-frame summary tables.
//
//go:embed schema.sql
var schemaSQL string

type Store struct {
	*sql.DB
}

// NewStore opens (creating if necessary) the summary database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize summary schema: %w", err)
	}

	log.Println("initialized BEV summary database schema")
	return &Store{db}, nil
}

// StartSession records the beginning of a pipeline run and returns its id.
func (s *Store) StartSession(feedAddress string, window cloud.BEVWindow, notes string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO bev_sessions (id, feed_address, z_min, z_max, notes)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.Exec(query, id, feedAddress, window.ZMin, window.ZMax, notes); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

// EndSession closes a session and rolls up its frame count.
func (s *Store) EndSession(sessionID string) error {
	query := `
		UPDATE bev_sessions
		SET
			end_timestamp = UNIXEPOCH('subsec'),
			frame_count = (SELECT COUNT(*) FROM frame_summaries WHERE session_id = ?)
		WHERE id = ?
	`
	if _, err := s.Exec(query, sessionID, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// RecordFrameSummary stores one processed frame's summary. Range and
// intensity columns are left NULL for frames that carried no points.
func (s *Store) RecordFrameSummary(sessionID, frameID string, inputPoints, outputPoints int, sum cloud.Summary) error {
	query := `
		INSERT INTO frame_summaries (
			session_id, frame_id, input_points, output_points,
			x_min, x_max, y_min, y_max, z_min, z_max,
			intensity_mean, intensity_p95
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var xMin, xMax, yMin, yMax, zMin, zMax, iMean, iP95 interface{}
	if sum.HasData {
		xMin, xMax = sum.X.Min, sum.X.Max
		yMin, yMax = sum.Y.Min, sum.Y.Max
		zMin, zMax = sum.Z.Min, sum.Z.Max
		iMean, iP95 = sum.IntensityD.Mean, sum.IntensityD.P95
	}

	_, err := s.Exec(query, sessionID, frameID, inputPoints, outputPoints,
		xMin, xMax, yMin, yMax, zMin, zMax, iMean, iP95)
	if err != nil {
		return fmt.Errorf("failed to insert frame summary: %w", err)
	}
	return nil
}

// FrameSummaryRow is one stored frame summary.
type FrameSummaryRow struct {
	ID             int64    `json:"id"`
	SessionID      string   `json:"session_id"`
	WriteTimestamp float64  `json:"write_timestamp"`
	FrameID        string   `json:"frame_id"`
	InputPoints    int      `json:"input_points"`
	OutputPoints   int      `json:"output_points"`
	XMin           *float64 `json:"x_min,omitempty"`
	XMax           *float64 `json:"x_max,omitempty"`
	YMin           *float64 `json:"y_min,omitempty"`
	YMax           *float64 `json:"y_max,omitempty"`
	ZMin           *float64 `json:"z_min,omitempty"`
	ZMax           *float64 `json:"z_max,omitempty"`
	IntensityMean  *float64 `json:"intensity_mean,omitempty"`
	IntensityP95   *float64 `json:"intensity_p95,omitempty"`
}

// RecentSummaries returns the most recent frame summaries, newest first.
func (s *Store) RecentSummaries(limit int) ([]FrameSummaryRow, error) {
	query := `
		SELECT id, session_id, write_timestamp, frame_id, input_points, output_points,
			x_min, x_max, y_min, y_max, z_min, z_max, intensity_mean, intensity_p95
		FROM frame_summaries
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frame summaries: %w", err)
	}
	defer rows.Close()

	var summaries []FrameSummaryRow
	for rows.Next() {
		var r FrameSummaryRow
		err := rows.Scan(&r.ID, &r.SessionID, &r.WriteTimestamp, &r.FrameID,
			&r.InputPoints, &r.OutputPoints,
			&r.XMin, &r.XMax, &r.YMin, &r.YMax, &r.ZMin, &r.ZMax,
			&r.IntensityMean, &r.IntensityP95)
		if err != nil {
			return nil, fmt.Errorf("failed to scan frame summary row: %w", err)
		}
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

// SessionRow is one stored pipeline session.
type SessionRow struct {
	ID             string   `json:"id"`
	StartTimestamp float64  `json:"start_timestamp"`
	EndTimestamp   *float64 `json:"end_timestamp,omitempty"`
	FeedAddress    string   `json:"feed_address"`
	ZMin           float64  `json:"z_min"`
	ZMax           float64  `json:"z_max"`
	FrameCount     int      `json:"frame_count"`
	Notes          string   `json:"notes"`
}

// RecentSessions returns the most recent sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRow, error) {
	query := `
		SELECT id, start_timestamp, end_timestamp, feed_address, z_min, z_max, frame_count, notes
		FROM bev_sessions
		ORDER BY start_timestamp DESC
		LIMIT ?
	`

	rows, err := s.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var r SessionRow
		err := rows.Scan(&r.ID, &r.StartTimestamp, &r.EndTimestamp, &r.FeedAddress,
			&r.ZMin, &r.ZMax, &r.FrameCount, &r.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}
