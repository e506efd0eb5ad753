package shelf

import (
	"context"
	"fmt"
	"strings"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
)

// NewGrade is the request to create a grade.
type NewGrade struct {
	Name string `json:"name" validate:"required,max=100"`
}

// NewBook is the request to create a book. Either GradeID names an existing
// grade or NewGradeName creates one first.
type NewBook struct {
	GradeID      string `json:"grade_id" validate:"required_without=NewGradeName"`
	NewGradeName string `json:"new_grade_name" validate:"max=100"`
	Title        string `json:"title" validate:"required,max=200"`
	CoverColor   string `json:"cover_color" validate:"omitempty,hexcolor"`
	CoverImage   string `json:"cover_image" validate:"max=2048"`
}

// NewChapter is the request to add a chapter to a book.
type NewChapter struct {
	BookID string `json:"book_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=200"`
}

// NewVideos is the request to add one or more videos to a chapter.
type NewVideos struct {
	BookID    string `json:"book_id" validate:"required"`
	Chapter   int    `json:"chapter" validate:"gte=0"`
	ProblemNo int    `json:"problem_no" validate:"gte=0"`
	Title     string `json:"title" validate:"max=200"`
	URL       string `json:"url" validate:"max=2048"`
	Count     int    `json:"count" validate:"gte=0"`
}

// VideoEdit is the request to change an existing video.
type VideoEdit struct {
	BookID    string `json:"book_id" validate:"required"`
	Chapter   int    `json:"chapter" validate:"gte=0"`
	Index     int    `json:"index" validate:"gte=0"`
	ProblemNo int    `json:"problem_no" validate:"gte=0"`
	Title     string `json:"title" validate:"max=200"`
	URL       string `json:"url" validate:"max=2048"`
}

// AddGrade creates a grade.
func (s *Shelf) AddGrade(ctx context.Context, req NewGrade) (*catalog.Grade, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.cat.AddGrade(req.Name)
	return g.Clone(), s.commitLocked(ctx, Event{
		Type:    EventGradeAdded,
		GradeID: g.ID,
		Data:    map[string]any{"name": g.Name},
	})
}

// AddBook creates a book, creating its grade first when requested.
func (s *Shelf) AddBook(ctx context.Context, req NewBook) (*catalog.Book, error) {
	req.GradeID = strings.TrimSpace(req.GradeID)
	req.NewGradeName = strings.TrimSpace(req.NewGradeName)
	req.Title = strings.TrimSpace(req.Title)
	req.CoverColor = strings.TrimSpace(req.CoverColor)
	req.CoverImage = strings.TrimSpace(req.CoverImage)
	if err := s.check(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gradeID := req.GradeID
	if gradeID == "" {
		gradeID = s.cat.AddGrade(req.NewGradeName).ID
	} else if _, ok := s.cat.Grade(gradeID); !ok {
		return nil, fmt.Errorf("grade %q: %w", gradeID, ErrNotFound)
	}

	b, _ := s.cat.AddBook(gradeID, catalog.BookInput{
		Title:      req.Title,
		CoverColor: req.CoverColor,
		CoverImage: req.CoverImage,
	})
	event := Event{
		Type:    EventBookAdded,
		GradeID: gradeID,
		BookID:  b.ID,
		Data:    map[string]any{"title": b.Title},
	}
	if req.GradeID == "" {
		event.Data["new_grade"] = req.NewGradeName
	}
	return b.Clone(), s.commitLocked(ctx, event)
}

// RemoveBook deletes the book at index within the grade.
func (s *Shelf) RemoveBook(ctx context.Context, gradeID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.cat.Grade(gradeID)
	if !ok {
		return fmt.Errorf("grade %q: %w", gradeID, ErrNotFound)
	}
	if index < 0 || index >= len(g.Books) {
		return fmt.Errorf("book %d of grade %q: %w", index, gradeID, ErrNotFound)
	}
	removed := g.Books[index]
	s.cat.RemoveBook(gradeID, index)

	return s.commitLocked(ctx, Event{
		Type:    EventBookRemoved,
		GradeID: gradeID,
		BookID:  removed.ID,
		Data:    map[string]any{"title": removed.Title, "index": index},
	})
}

// AddChapter appends a chapter to a book and returns its index.
func (s *Shelf) AddChapter(ctx context.Context, req NewChapter) (int, error) {
	req.BookID = strings.TrimSpace(req.BookID)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return -1, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.cat.ResolveDeepLink(req.BookID)
	if !ok {
		return -1, fmt.Errorf("book %q: %w", req.BookID, ErrNotFound)
	}
	b.AddChapter(req.Name)
	index := len(b.Chapters) - 1

	return index, s.commitLocked(ctx, Event{
		Type:   EventChapterAdded,
		BookID: b.ID,
		Data:   map[string]any{"name": req.Name, "index": index},
	})
}

// AddVideos adds a single video or, with Count > 1, a run of unlinked
// placeholders. Title and URL are ignored for runs.
func (s *Shelf) AddVideos(ctx context.Context, req NewVideos) ([]catalog.Video, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if err := s.check(req); err != nil {
		return nil, err
	}
	if req.Count > catalog.MaxVideoRun {
		return nil, fmt.Errorf("%w: count %d exceeds %d", ErrInvalid, req.Count, catalog.MaxVideoRun)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.chapterLocked(req.BookID, req.Chapter)
	if err != nil {
		return nil, err
	}
	added := ch.AddVideos(req.ProblemNo, req.Title, req.URL, req.Count)

	return added, s.commitLocked(ctx, Event{
		Type:   EventVideosAdded,
		BookID: req.BookID,
		Data: map[string]any{
			"chapter":    req.Chapter,
			"problem_no": req.ProblemNo,
			"count":      len(added),
		},
	})
}

// UpdateVideo edits the video at Index in the chapter.
func (s *Shelf) UpdateVideo(ctx context.Context, req VideoEdit) error {
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if err := s.check(req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.chapterLocked(req.BookID, req.Chapter)
	if err != nil {
		return err
	}
	if !ch.UpdateVideo(req.Index, req.ProblemNo, req.Title, req.URL) {
		return fmt.Errorf("video %d: %w", req.Index, ErrNotFound)
	}

	return s.commitLocked(ctx, Event{
		Type:   EventVideoUpdated,
		BookID: req.BookID,
		Data: map[string]any{
			"chapter":    req.Chapter,
			"problem_no": req.ProblemNo,
			"linked":     req.URL != "",
		},
	})
}

func (s *Shelf) chapterLocked(bookID string, index int) (*catalog.Chapter, error) {
	b, ok := s.cat.ResolveDeepLink(bookID)
	if !ok {
		return nil, fmt.Errorf("book %q: %w", bookID, ErrNotFound)
	}
	ch, ok := b.Chapter(index)
	if !ok {
		return nil, fmt.Errorf("chapter %d of %q: %w", index, bookID, ErrNotFound)
	}
	return ch, nil
}
