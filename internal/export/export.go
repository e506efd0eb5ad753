// Package export renders the catalog for people who review it outside the
// site: a spreadsheet with one row per video and a YAML dump.
package export

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
)

// Formats accepted by Write.
const (
	FormatXLSX = "xlsx"
	FormatYAML = "yaml"
)

// ContentTypeXLSX is the media type of the spreadsheet export.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of every sheet.
var Header = []string{"grade", "book", "chapter", "problem", "title", "type", "url", "linked"}

const (
	emptySheet   = "catalog"
	maxSheetName = 31
)

// Row is one video in the flattened catalog.
type Row struct {
	Grade     string
	Book      string
	Chapter   string
	ProblemNo int
	Title     string
	Type      catalog.VideoType
	URL       string
	Linked    bool
}

func (r Row) values() []any {
	return []any{r.Grade, r.Book, r.Chapter, r.ProblemNo, r.Title, string(r.Type), r.URL, r.Linked}
}

// Rows flattens a grade into one row per video, in stored order.
func Rows(g *catalog.Grade) []Row {
	var rows []Row
	for _, b := range g.Books {
		for _, ch := range b.Chapters {
			for _, v := range ch.Videos {
				rows = append(rows, Row{
					Grade:     g.Name,
					Book:      b.Title,
					Chapter:   ch.Name,
					ProblemNo: v.ProblemNo,
					Title:     v.Title,
					Type:      v.Type,
					URL:       v.URL,
					Linked:    v.Linked(),
				})
			}
		}
	}
	return rows
}

// Write renders c in the named format.
func Write(w io.Writer, c *catalog.Catalog, format string) error {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return WriteXLSX(w, c)
	case FormatYAML, "yml":
		return WriteYAML(w, c)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteYAML renders the catalog document as YAML.
func WriteYAML(w io.Writer, c *catalog.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteXLSX renders a workbook with one sheet per grade in display order.
// An empty catalog yields a single sheet holding the header.
func WriteXLSX(w io.Writer, c *catalog.Catalog) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	grades := c.SortedGrades()
	names := sheetNames(grades)
	if len(grades) == 0 {
		names = []string{emptySheet}
	}

	defaultSheet := f.GetSheetName(0)
	for i, name := range names {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		var rows []Row
		if i < len(grades) {
			rows = Rows(grades[i])
		}
		if err := writeSheet(f, name, rows, bold); err != nil {
			return err
		}
	}
	if !slices.Contains(names, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows []Row, headerStyle int) error {
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header of %q: %w", sheet, err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := r.values()
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}

// sheetNames derives a distinct, legal worksheet name for each grade.
func sheetNames(grades []*catalog.Grade) []string {
	names := make([]string, 0, len(grades))
	seen := make(map[string]bool, len(grades))
	for _, g := range grades {
		base := sanitizeSheetName(g.Name)
		name := base
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := " (" + strconv.Itoa(n) + ")"
			name = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "grade"
	}
	return truncateRunes(name, maxSheetName)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
