package catalog

import (
	"net/url"
	"strconv"
)

// Deep-link query parameters.
const (
	ParamBook    = "book"
	ParamChapter = "chapter"
)

// DeepLink addresses a book and, optionally, one of its chapters.
type DeepLink struct {
	BookID     string
	Chapter    int
	HasChapter bool
}

// BuildShareLink returns base + "?book=<bookID>&chapter=<chapterIndex>".
// The base differs per deployment and is supplied by the caller.
func BuildShareLink(base, bookID string, chapterIndex int) string {
	return base + "?" + ParamBook + "=" + bookID + "&" + ParamChapter + "=" + strconv.Itoa(chapterIndex)
}

// ParseDeepLink extracts a deep link from query parameters. It reports false
// when no book is named. A chapter value that is not an integer is ignored.
func ParseDeepLink(q url.Values) (DeepLink, bool) {
	bookID := q.Get(ParamBook)
	if bookID == "" {
		return DeepLink{}, false
	}
	link := DeepLink{BookID: bookID}
	if raw := q.Get(ParamChapter); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			link.Chapter = n
			link.HasChapter = true
		}
	}
	return link, true
}

// ParseShareLink parses a link produced by BuildShareLink.
func ParseShareLink(link string) (DeepLink, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return DeepLink{}, false
	}
	return ParseDeepLink(u.Query())
}

// ResolveDeepLink finds the book with the given id across all grades. The
// first match wins.
func (c *Catalog) ResolveDeepLink(bookID string) (*Book, bool) {
	for _, g := range c.Grades {
		for _, b := range g.Books {
			if b.ID == bookID {
				return b, true
			}
		}
	}
	return nil, false
}

// BookLocation returns the grade that owns the book and the book's index.
func (c *Catalog) BookLocation(bookID string) (*Grade, int, bool) {
	for _, g := range c.Grades {
		for i, b := range g.Books {
			if b.ID == bookID {
				return g, i, true
			}
		}
	}
	return nil, -1, false
}
