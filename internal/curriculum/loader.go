// Package curriculum seeds the catalog from YAML book outlines.
package curriculum

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

// LoadDir reads every outline under rootDir in lexical path order. Files that
// do not parse or lack a grade or title are skipped with a warning.
func LoadDir(rootDir string) ([]Outline, error) {
	var outlines []Outline
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		o, ok, err := loadOutline(path)
		if err != nil {
			return err
		}
		if ok {
			outlines = append(outlines, o)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading outlines: %w", err)
	}

	slog.Info("outlines loaded", "dir", rootDir, "books", len(outlines))
	return outlines, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadOutline(path string) (Outline, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outline{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		slog.Warn("skipping invalid outline YAML", "path", path, "error", err)
		return Outline{}, false, nil
	}
	o.Grade = strings.TrimSpace(o.Grade)
	o.Title = strings.TrimSpace(o.Title)
	if o.Grade == "" || o.Title == "" {
		slog.Warn("skipping outline without grade or title", "path", path)
		return Outline{}, false, nil
	}
	for i, ch := range o.Chapters {
		if ch.Problems < 0 || ch.Problems > catalog.MaxVideoRun {
			slog.Warn("skipping outline with bad problem count",
				"path", path, "chapter", i, "problems", ch.Problems)
			return Outline{}, false, nil
		}
	}
	o.Path = path
	return o, true, nil
}

// Apply adds each outline as a new book. The grade is matched by exact name
// and created when missing. It returns the ids of the books created.
func Apply(c *catalog.Catalog, outlines []Outline) []string {
	ids := make([]string, 0, len(outlines))
	for _, o := range outlines {
		g, ok := c.GradeByName(o.Grade)
		if !ok {
			g = c.AddGrade(o.Grade)
		}
		b, _ := c.AddBook(g.ID, catalog.BookInput{
			Title:      o.Title,
			CoverColor: o.CoverColor,
			CoverImage: o.CoverImage,
		})
		for _, chOutline := range o.Chapters {
			ch := b.AddChapter(strings.TrimSpace(chOutline.Name))
			if chOutline.Problems > 0 {
				ch.AddVideos(chOutline.FirstProblem(), "", "", chOutline.Problems)
			}
		}
		ids = append(ids, b.ID)
	}
	return ids
}

// Seed loads the outlines under rootDir and applies them to the shelf in a
// single saved edit. An empty directory is not an error and saves nothing.
func Seed(ctx context.Context, s *shelf.Shelf, rootDir string) ([]string, error) {
	outlines, err := LoadDir(rootDir)
	if err != nil {
		return nil, err
	}
	if len(outlines) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(outlines))
	for _, o := range outlines {
		paths = append(paths, o.Path)
	}

	var ids []string
	err = s.Update(ctx, shelf.Event{
		Type: shelf.EventSeeded,
		Data: map[string]any{
			"dir":   rootDir,
			"files": paths,
		},
	}, func(c *catalog.Catalog) error {
		ids = Apply(c, outlines)
		return nil
	})
	return ids, err
}
