package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Grade ranks used for shelf ordering.
const (
	RankElementary = 1
	RankMiddle     = 2
	RankHigh       = 3
	RankOther      = 4
)

// GradeRank classifies a grade name by school level.
func GradeRank(name string) int {
	switch {
	case strings.Contains(name, "초등"):
		return RankElementary
	case strings.Contains(name, "중학"), strings.Contains(name, "중등"):
		return RankMiddle
	case strings.Contains(name, "고등"):
		return RankHigh
	default:
		return RankOther
	}
}

// SortedGrades returns the grades in display order without touching the
// stored order: by rank, then Korean collation of the name, then byte order
// of the name, then id.
func (c *Catalog) SortedGrades() []*Grade {
	out := slices.Clone(c.Grades)
	// Collators keep internal buffers, so each call gets its own.
	col := collate.New(language.Korean)
	slices.SortFunc(out, func(a, b *Grade) int {
		if r := cmp.Compare(GradeRank(a.Name), GradeRank(b.Name)); r != 0 {
			return r
		}
		if r := col.CompareString(a.Name, b.Name); r != 0 {
			return r
		}
		if r := strings.Compare(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func sortVideos(videos []Video) {
	slices.SortStableFunc(videos, func(a, b Video) int {
		return cmp.Compare(a.ProblemNo, b.ProblemNo)
	})
}
