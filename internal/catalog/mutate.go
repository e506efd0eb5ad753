package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// Grade returns the grade with the given id.
func (c *Catalog) Grade(id string) (*Grade, bool) {
	for _, g := range c.Grades {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GradeByName returns the first grade whose name matches exactly.
func (c *Catalog) GradeByName(name string) (*Grade, bool) {
	for _, g := range c.Grades {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// AddGrade appends a new empty grade.
func (c *Catalog) AddGrade(name string) *Grade {
	g := &Grade{ID: newID("grade"), Name: name, Books: []*Book{}}
	c.Grades = append(c.Grades, g)
	return g
}

// AddBook appends a new book to the grade. It reports false when the grade
// does not exist.
func (c *Catalog) AddBook(gradeID string, in BookInput) (*Book, bool) {
	g, ok := c.Grade(gradeID)
	if !ok {
		return nil, false
	}

	color := in.CoverColor
	if color == "" {
		color = randomColor()
	}
	b := &Book{
		ID:         newID("book"),
		Title:      in.Title,
		CoverColor: &color,
		Chapters:   []*Chapter{},
	}
	if in.CoverImage != "" {
		img := in.CoverImage
		b.CoverImage = &img
	}
	g.Books = append(g.Books, b)
	return b, true
}

// RemoveBook deletes the book at index from the grade. Unknown grades and
// out-of-range indexes leave the catalog unchanged and report false.
func (c *Catalog) RemoveBook(gradeID string, index int) bool {
	g, ok := c.Grade(gradeID)
	if !ok || index < 0 || index >= len(g.Books) {
		return false
	}
	g.Books = append(g.Books[:index], g.Books[index+1:]...)
	return true
}

// AddChapter appends an empty chapter.
func (b *Book) AddChapter(name string) *Chapter {
	ch := &Chapter{Name: name, Videos: []Video{}}
	b.Chapters = append(b.Chapters, ch)
	return ch
}

// Chapter returns the chapter at index.
func (b *Book) Chapter(index int) (*Chapter, bool) {
	if index < 0 || index >= len(b.Chapters) {
		return nil, false
	}
	return b.Chapters[index], true
}

// MaxVideoRun is the largest run of placeholder videos added in one call.
const MaxVideoRun = 200

// AddVideos adds videos starting at problem number start. With count <= 1 a
// single youtube video is added with the given title and url. With count > 1,
// count unlinked videos with generated titles are added and title and url are
// ignored. The chapter is re-sorted by problem number afterwards and the new
// videos are returned.
func (ch *Chapter) AddVideos(start int, title, url string, count int) []Video {
	var added []Video
	if count > 1 {
		added = make([]Video, 0, count)
		for i := range count {
			no := start + i
			added = append(added, Video{
				ProblemNo: no,
				Title:     DefaultTitle(no),
				Type:      VideoYouTube,
			})
		}
	} else {
		added = []Video{{
			ProblemNo: start,
			Title:     titleOrDefault(title, start),
			Type:      VideoYouTube,
			URL:       url,
		}}
	}
	ch.Videos = append(ch.Videos, added...)
	sortVideos(ch.Videos)
	return added
}

// UpdateVideo replaces the number, title and url of the video at index,
// keeping its type. It reports false when index is out of range.
func (ch *Chapter) UpdateVideo(index, problemNo int, title, url string) bool {
	if index < 0 || index >= len(ch.Videos) {
		return false
	}
	v := &ch.Videos[index]
	v.ProblemNo = problemNo
	v.Title = titleOrDefault(title, problemNo)
	v.URL = url
	sortVideos(ch.Videos)
	return true
}

// NextProblemNo suggests the number for the next single video.
func (ch *Chapter) NextProblemNo() int {
	return len(ch.Videos) + 1
}

// DefaultTitle is the title given to a video without one.
func DefaultTitle(problemNo int) string {
	return fmt.Sprintf("%d번 문제", problemNo)
}

func titleOrDefault(title string, problemNo int) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle(problemNo)
	}
	return title
}

func newID(prefix string) string {
	return prefix + "_" + uuid.Must(uuid.NewV7()).String()
}

func randomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}
