package postgres

import (
	"context"
	"fmt"

	"libraryledger/pkg/eventstore"
)

// CurrentVersion implements eventstore.Backend.
func (p *Postgres) CurrentVersion(ctx context.Context, streamType, streamID string) (int, error) {
	var version int
	err := p.q(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_type = $1 AND stream_id = $2`,
		streamType, streamID).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("current version: %w", err)
	}
	return version, nil
}

// InsertEvents implements eventstore.Backend. A duplicate stream version means another writer
// appended first.
func (p *Postgres) InsertEvents(ctx context.Context, events []eventstore.Event) ([]eventstore.Event, error) {
	const stmt = `
INSERT INTO events (event_id, stream_type, stream_id, event_type, data, version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	stored := make([]eventstore.Event, len(events))
	for i, ev := range events {
		err := p.q(ctx).QueryRow(ctx, stmt,
			ev.EventID, ev.StreamType, ev.StreamID, ev.EventType, []byte(ev.Data), ev.Version, ev.CreatedAt).
			Scan(&ev.ID)
		if pgCode(err) == codeUniqueViolation {
			return nil, eventstore.ErrConcurrencyConflict
		}
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
		stored[i] = ev
	}
	return stored, nil
}

// LoadEvents implements eventstore.Backend. A zero toVersion means no upper bound.
func (p *Postgres) LoadEvents(ctx context.Context, streamType, streamID string, fromVersion, toVersion int) ([]eventstore.Event, error) {
	query := `SELECT id, event_id, stream_type, stream_id, event_type, data, version, created_at
FROM events WHERE stream_type = $1 AND stream_id = $2 AND version >= $3`
	args := []any{streamType, streamID, fromVersion}
	if toVersion > 0 {
		query += ` AND version <= $4`
		args = append(args, toVersion)
	}
	query += ` ORDER BY version`

	rows, err := p.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []eventstore.Event
	for rows.Next() {
		var ev eventstore.Event
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.StreamType, &ev.StreamID, &ev.EventType, &data, &ev.Version, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Data = data
		out = append(out, ev)
	}
	return out, rows.Err()
}
