// Package catalog holds the grade/book/chapter/video tree and the operations
// that query and mutate it. The catalog is a plain value: callers own
// synchronisation.
package catalog

// VideoType identifies how a video is played back.
type VideoType string

const (
	VideoYouTube VideoType = "youtube"
	VideoFile    VideoType = "file"
)

// Catalog is the root of the persisted document.
type Catalog struct {
	Grades []*Grade `json:"grades" yaml:"grades"`
}

// Grade groups books, e.g. a school level.
type Grade struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Books []*Book `json:"books" yaml:"books"`
}

// Book is a titled problem-set collection.
type Book struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	CoverColor *string    `json:"cover_color" yaml:"cover_color"`
	CoverImage *string    `json:"cover_image" yaml:"cover_image"`
	Chapters   []*Chapter `json:"chapters" yaml:"chapters"`
}

// Chapter is a named unit inside a book. It has no id of its own and is
// addressed by its index in Book.Chapters.
type Chapter struct {
	Name   string  `json:"name" yaml:"name"`
	Videos []Video `json:"videos" yaml:"videos"`
}

// Video is a single problem's video reference.
type Video struct {
	ProblemNo int       `json:"problem_no" yaml:"problem_no"`
	Title     string    `json:"title" yaml:"title"`
	Type      VideoType `json:"type" yaml:"type"`
	URL       string    `json:"url" yaml:"url"`
}

// BookInput carries the fields supplied when a book is created.
type BookInput struct {
	Title      string
	CoverColor string // empty picks a random color
	CoverImage string // empty means no image
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{Grades: []*Grade{}}
}
