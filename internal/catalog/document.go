package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "type": "object",
  "required": ["grades"],
  "properties": {
    "grades": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "books": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["id", "title"],
              "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "cover_color": {"type": ["string", "null"]},
                "cover_image": {"type": ["string", "null"]},
                "chapters": {
                  "type": ["array", "null"],
                  "items": {
                    "type": "object",
                    "required": ["name"],
                    "properties": {
                      "name": {"type": "string"},
                      "videos": {
                        "type": ["array", "null"],
                        "items": {
                          "type": "object",
                          "required": ["problem_no"],
                          "properties": {
                            "problem_no": {"type": "integer"},
                            "title": {"type": "string"},
                            "type": {"enum": ["youtube", "file", ""]},
                            "url": {"type": "string"}
                          }
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// Validate checks raw against the document schema.
func Validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid document: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load parses a catalog document. Missing, malformed or schema-invalid input
// yields an empty catalog; Load never fails.
func Load(raw []byte) *Catalog {
	if len(bytes.TrimSpace(raw)) == 0 {
		return New()
	}
	if err := Validate(raw); err != nil {
		slog.Warn("discarding catalog document", "error", err)
		return New()
	}

	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		slog.Warn("discarding catalog document", "error", err)
		return New()
	}
	c.normalize()
	return &c
}

// Save renders the catalog as indented JSON.
func Save(c *Catalog) ([]byte, error) {
	if c == nil {
		c = New()
	}
	c.normalize()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}

// normalize replaces nil sequences with empty ones so that documents written
// with null arrays load the same as those written with [].
func (c *Catalog) normalize() {
	if c.Grades == nil {
		c.Grades = []*Grade{}
	}
	for _, g := range c.Grades {
		if g.Books == nil {
			g.Books = []*Book{}
		}
		for _, b := range g.Books {
			if b.Chapters == nil {
				b.Chapters = []*Chapter{}
			}
			for _, ch := range b.Chapters {
				if ch.Videos == nil {
					ch.Videos = []Video{}
				}
				for i := range ch.Videos {
					if ch.Videos[i].Type == "" {
						ch.Videos[i].Type = VideoYouTube
					}
				}
			}
		}
	}
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Grades: make([]*Grade, 0, len(c.Grades))}
	for _, g := range c.Grades {
		out.Grades = append(out.Grades, g.Clone())
	}
	return out
}

// Clone returns a deep copy of the grade.
func (g *Grade) Clone() *Grade {
	out := &Grade{ID: g.ID, Name: g.Name, Books: make([]*Book, 0, len(g.Books))}
	for _, b := range g.Books {
		out.Books = append(out.Books, b.Clone())
	}
	return out
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	out := &Book{
		ID:         b.ID,
		Title:      b.Title,
		CoverColor: cloneString(b.CoverColor),
		CoverImage: cloneString(b.CoverImage),
		Chapters:   make([]*Chapter, 0, len(b.Chapters)),
	}
	for _, ch := range b.Chapters {
		videos := make([]Video, len(ch.Videos))
		copy(videos, ch.Videos)
		out.Chapters = append(out.Chapters, &Chapter{Name: ch.Name, Videos: videos})
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
