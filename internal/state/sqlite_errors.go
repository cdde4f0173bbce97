package state

import (
	"context"
	"database/sql"
	"fmt"
)

// RecordUnclassified aggregates an engine error outside the taxonomy by
// (engine, message). The first query seen is kept as a sample.
func (s *SQLiteStore) RecordUnclassified(runID, engine, query, message string) error {
	if s.db == nil {
		return errNotOpened
	}

	now := nowUTC()
	_, err := s.db.ExecContext(context.Background(), `INSERT INTO unclassified_errors (engine, message, sample_query,
		run_id, occurrences, first_seen, last_seen) VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (engine, message) DO UPDATE SET occurrences = occurrences + 1,
		last_seen = excluded.last_seen, run_id = excluded.run_id`,
		engine, message, query, nullString(runID), now, now)
	if err != nil {
		return fmt.Errorf("failed to record unclassified error: %w", err)
	}
	return nil
}

// ListUnclassified returns the most frequent unclassified errors first.
func (s *SQLiteStore) ListUnclassified(limit int) ([]*UnclassifiedError, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(context.Background(), `SELECT engine, message, sample_query, run_id, occurrences,
		first_seen, last_seen FROM unclassified_errors ORDER BY occurrences DESC, last_seen DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unclassified errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*UnclassifiedError
	for rows.Next() {
		var ue UnclassifiedError
		var runID sql.NullString
		if err := rows.Scan(&ue.Engine, &ue.Message, &ue.SampleQuery, &runID, &ue.Occurrences,
			&ue.FirstSeen, &ue.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan unclassified error: %w", err)
		}
		ue.RunID = runID.String
		out = append(out, &ue)
	}
	return out, rows.Err()
}
