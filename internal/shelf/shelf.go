// Package shelf serves the catalog to the HTTP server and the CLI. It loads
// the catalog once, serialises edits, saves after every edit and records an
// audit event for each one.
package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/storage"
)

var (
	// ErrNotFound is returned when a grade, book, chapter or video does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when operator input is rejected.
	ErrInvalid = errors.New("invalid input")
	// ErrPersist is returned when an edit was applied in memory but could not
	// be written. The edit is kept; retrying is up to the caller.
	ErrPersist = errors.New("catalog not saved")
)

// Config holds dependencies for a Shelf.
type Config struct {
	Gateway      storage.Gateway
	Events       EventLogger
	ShareBaseURL string
}

// Shelf holds the loaded catalog.
type Shelf struct {
	gateway  storage.Gateway
	events   EventLogger
	baseURL  string
	validate *validator.Validate

	mu  sync.RWMutex
	cat *catalog.Catalog
}

// New creates a shelf with an empty catalog. Call Open to load the stored one.
func New(cfg Config) *Shelf {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	return &Shelf{
		gateway:  cfg.Gateway,
		events:   events,
		baseURL:  cfg.ShareBaseURL,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cat:      catalog.New(),
	}
}

// Open loads the stored catalog. A missing or unreadable document leaves an
// empty catalog in place; Open never fails.
func (s *Shelf) Open(ctx context.Context) {
	raw, err := s.gateway.Read(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.Info("no stored catalog, starting empty")
		raw = nil
	case err != nil:
		slog.Error("failed to read catalog, starting empty", "error", err)
		raw = nil
	}

	c := catalog.Load(raw)

	s.mu.Lock()
	s.cat = c
	s.mu.Unlock()

	slog.Info("catalog loaded", "grades", len(c.Grades))
}

// Reload re-reads the stored catalog and replaces the in-memory copy. Unlike
// Open, a read error or a document that fails validation keeps the current
// catalog. The write lock is held across the read so no edit can commit
// between the read and the swap.
func (s *Shelf) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.gateway.Read(ctx)
	if err != nil {
		slog.Warn("failed to reload catalog, keeping current", "error", err)
		return
	}
	if err := catalog.Validate(raw); err != nil {
		slog.Warn("ignoring invalid catalog document, keeping current", "error", err)
		return
	}
	s.cat = catalog.Load(raw)
	slog.Info("catalog reloaded", "grades", len(s.cat.Grades))
}

// ShareBaseURL returns the base url share links are built on.
func (s *Shelf) ShareBaseURL() string {
	return s.baseURL
}

// Snapshot returns a deep copy of the catalog.
func (s *Shelf) Snapshot() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.Clone()
}

// SortedGrades returns a copy of the grades in display order.
func (s *Shelf) SortedGrades() []*catalog.Grade {
	return s.Snapshot().SortedGrades()
}

// Document returns the serialized catalog.
func (s *Shelf) Document() ([]byte, error) {
	return catalog.Save(s.Snapshot())
}

// Book returns a copy of the book with the given id.
func (s *Shelf) Book(bookID string) (*catalog.Book, error) {
	c := s.Snapshot()
	b, ok := c.ResolveDeepLink(bookID)
	if !ok {
		return nil, fmt.Errorf("book %q: %w", bookID, ErrNotFound)
	}
	return b, nil
}

// View is what a deep link resolves to.
type View struct {
	Book       *catalog.Book
	Chapter    int
	HasChapter bool
}

// ResolveDeepLink resolves book/chapter query parameters. It reports false
// when the query names no book or the book does not exist. The chapter index
// is passed through unchecked.
func (s *Shelf) ResolveDeepLink(q url.Values) (View, bool) {
	link, ok := catalog.ParseDeepLink(q)
	if !ok {
		return View{}, false
	}
	b, err := s.Book(link.BookID)
	if err != nil {
		slog.Info("deep link to unknown book", "book_id", link.BookID)
		return View{}, false
	}
	return View{Book: b, Chapter: link.Chapter, HasChapter: link.HasChapter}, true
}

// ShareLink returns the link students use to open one chapter.
func (s *Shelf) ShareLink(bookID string, chapter int) (string, error) {
	b, err := s.Book(bookID)
	if err != nil {
		return "", err
	}
	if _, ok := b.Chapter(chapter); !ok {
		return "", fmt.Errorf("chapter %d of %q: %w", chapter, bookID, ErrNotFound)
	}
	return catalog.BuildShareLink(s.baseURL, bookID, chapter), nil
}

// Update applies fn to the catalog under the write lock and saves the result.
// If fn fails nothing is saved; fn must then leave the catalog unchanged.
func (s *Shelf) Update(ctx context.Context, event Event, fn func(c *catalog.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.cat); err != nil {
		return err
	}
	return s.commitLocked(ctx, event)
}

// commitLocked saves the catalog and records the event. s.mu must be held.
// An event whose save failed is recorded with saved=false in its data.
func (s *Shelf) commitLocked(ctx context.Context, event Event) error {
	data, err := catalog.Save(s.cat)
	if err == nil {
		err = s.gateway.Write(ctx, data)
	}
	if err != nil {
		slog.Error("failed to save catalog", "event", event.Type, "error", err)
		event.Data = maps.Clone(event.Data)
		if event.Data == nil {
			event.Data = map[string]any{}
		}
		event.Data["saved"] = false
		s.record(ctx, event)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	slog.Info("catalog saved", "event", event.Type, "bytes", len(data))
	s.record(ctx, event)
	return nil
}

func (s *Shelf) record(ctx context.Context, event Event) {
	if err := s.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to record event", "type", event.Type, "error", err)
	}
}

func (s *Shelf) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
