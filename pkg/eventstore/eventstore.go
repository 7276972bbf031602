// Package eventstore is an append-only journal of per-stream events with optimistic versioning.
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrConcurrencyConflict is returned when the stream moved past the expected version.
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	// ErrInvalidVersion is returned for a negative expected version.
	ErrInvalidVersion = errors.New("invalid version number")
)

// Event is one journal entry. Version is 1-based within its stream.
type Event struct {
	ID         int64           `json:"id"`
	EventID    uuid.UUID       `json:"event_id"`
	StreamType string          `json:"stream_type"`
	StreamID   string          `json:"stream_id"`
	EventType  string          `json:"event_type"`
	Data       json.RawMessage `json:"data"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Backend persists events. Implementations join the caller's transaction when the context carries one.
type Backend interface {
	CurrentVersion(ctx context.Context, streamType, streamID string) (int, error)
	// InsertEvents stores events whose versions are already assigned and returns them with their ids.
	// A duplicate (stream, version) must be reported as ErrConcurrencyConflict.
	InsertEvents(ctx context.Context, events []Event) ([]Event, error)
	// LoadEvents returns events with fromVersion <= version (<= toVersion when toVersion > 0) in version order.
	LoadEvents(ctx context.Context, streamType, streamID string, fromVersion, toVersion int) ([]Event, error)
}

// EventStore appends and reads journal events on top of a Backend.
type EventStore struct {
	backend Backend
	tracer  trace.Tracer
	now     func() time.Time
}

// NewEventStore creates an event store over the given backend.
func NewEventStore(backend Backend) *EventStore {
	return &EventStore{
		backend: backend,
		tracer:  otel.Tracer("libraryledger/eventstore"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AppendEvents appends events to a stream after checking it is still at expectedVersion.
func (es *EventStore) AppendEvents(ctx context.Context, streamType, streamID string, expectedVersion int, events []Event) ([]Event, error) {
	ctx, span := es.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("stream.type", streamType),
			attribute.String("stream.id", streamID),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if expectedVersion < 0 {
		return nil, ErrInvalidVersion
	}

	currentVersion, err := es.backend.CurrentVersion(ctx, streamType, streamID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query current version")
		return nil, fmt.Errorf("query current version: %w", err)
	}

	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return nil, ErrConcurrencyConflict
	}

	now := es.now()
	prepared := make([]Event, len(events))
	for i, ev := range events {
		ev.StreamType = streamType
		ev.StreamID = streamID
		ev.Version = expectedVersion + i + 1
		if ev.EventID == uuid.Nil {
			ev.EventID = uuid.New()
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
		}
		prepared[i] = ev
	}

	stored, err := es.backend.InsertEvents(ctx, prepared)
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			span.SetAttributes(attribute.Bool("conflict.detected", true))
			return nil, ErrConcurrencyConflict
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert events")
		return nil, fmt.Errorf("insert events: %w", err)
	}

	for _, ev := range stored {
		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.id", ev.ID),
			attribute.Int("event.version", ev.Version),
			attribute.String("event.type", ev.EventType),
		))
	}
	span.SetAttributes(attribute.Bool("append.success", true))
	return stored, nil
}

// Append encodes payload and appends it as the next event of the stream.
func (es *EventStore) Append(ctx context.Context, streamType, streamID, eventType string, payload any) (*Event, error) {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	version, err := es.backend.CurrentVersion(ctx, streamType, streamID)
	if err != nil {
		return nil, fmt.Errorf("query current version: %w", err)
	}

	stored, err := es.AppendEvents(ctx, streamType, streamID, version, []Event{{EventType: eventType, Data: data}})
	if err != nil {
		return nil, err
	}
	return &stored[0], nil
}

// LoadEvents reads a stream with an optional version range. toVersion <= 0 means up to the latest.
func (es *EventStore) LoadEvents(ctx context.Context, streamType, streamID string, fromVersion, toVersion int) ([]Event, error) {
	ctx, span := es.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(
			attribute.String("stream.type", streamType),
			attribute.String("stream.id", streamID),
			attribute.Int("from.version", fromVersion),
			attribute.Int("to.version", toVersion),
		),
	)
	defer span.End()

	events, err := es.backend.LoadEvents(ctx, streamType, streamID, fromVersion, toVersion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load events")
		return nil, fmt.Errorf("load events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// Load reads a whole stream.
func (es *EventStore) Load(ctx context.Context, streamType, streamID string) ([]Event, error) {
	return es.LoadEvents(ctx, streamType, streamID, 0, 0)
}

// Decode unmarshals an event payload into dst.
func Decode(ev Event, dst any) error {
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(ev.Data, dst); err != nil {
		return fmt.Errorf("decode %s v%d: %w", ev.EventType, ev.Version, err)
	}
	return nil
}
