package shelf

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kug0115-cpu/kookmath/internal/storage"
)

// Event types recorded for catalog edits.
const (
	EventGradeAdded   = "grade_added"
	EventBookAdded    = "book_added"
	EventBookRemoved  = "book_removed"
	EventChapterAdded = "chapter_added"
	EventVideosAdded  = "videos_added"
	EventVideoUpdated = "video_updated"
	EventSeeded       = "catalog_seeded"
)

const eventsSchema = `CREATE TABLE IF NOT EXISTS catalog_events (
	id         BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	grade_id   TEXT,
	book_id    TEXT,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Event is an audit record of one catalog edit.
type Event struct {
	Type      string
	GradeID   string
	BookID    string
	Data      map[string]any
	CreatedAt time.Time
}

// EventLogger records audit events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the catalog_events table.
type PostgresEventLogger struct {
	db storage.Querier
}

func NewPostgresEventLogger(db storage.Querier) *PostgresEventLogger {
	return &PostgresEventLogger{db: db}
}

// EnsureSchema creates the events table if it does not exist.
func (l *PostgresEventLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if _, err := l.db.Exec(ctx, eventsSchema); err != nil {
		return fmt.Errorf("create catalog_events: %w", err)
	}
	return nil
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := l.db.Exec(ctx,
		`INSERT INTO catalog_events (event_type, grade_id, book_id, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.Type,
		nullIfEmpty(event.GradeID),
		nullIfEmpty(event.BookID),
		string(data),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"grade_id", event.GradeID,
		"book_id", event.BookID,
	)
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
