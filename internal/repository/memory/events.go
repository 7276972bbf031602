package memory

import (
	"context"

	"libraryledger/pkg/eventstore"
)

// CurrentVersion implements eventstore.Backend.
func (m *Memory) CurrentVersion(ctx context.Context, streamType, streamID string) (int, error) {
	defer m.lock(ctx)()

	version := 0
	for _, ev := range m.state.events {
		if ev.StreamType == streamType && ev.StreamID == streamID && ev.Version > version {
			version = ev.Version
		}
	}
	return version, nil
}

// InsertEvents implements eventstore.Backend.
func (m *Memory) InsertEvents(ctx context.Context, events []eventstore.Event) ([]eventstore.Event, error) {
	defer m.lock(ctx)()

	for _, ev := range events {
		for _, have := range m.state.events {
			if have.StreamType == ev.StreamType && have.StreamID == ev.StreamID && have.Version == ev.Version {
				return nil, eventstore.ErrConcurrencyConflict
			}
		}
	}

	stored := make([]eventstore.Event, len(events))
	for i, ev := range events {
		ev.ID = int64(len(m.state.events) + 1)
		m.state.events = append(m.state.events, ev)
		stored[i] = ev
	}
	return stored, nil
}

// LoadEvents implements eventstore.Backend.
func (m *Memory) LoadEvents(ctx context.Context, streamType, streamID string, fromVersion, toVersion int) ([]eventstore.Event, error) {
	defer m.lock(ctx)()

	var out []eventstore.Event
	for _, ev := range m.state.events {
		if ev.StreamType != streamType || ev.StreamID != streamID || ev.Version < fromVersion {
			continue
		}
		if toVersion > 0 && ev.Version > toVersion {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
