package curriculum

// Outline describes one book to seed: its grade, cover and chapter layout.
type Outline struct {
	Grade      string           `yaml:"grade"`
	Title      string           `yaml:"title"`
	CoverColor string           `yaml:"cover_color"`
	CoverImage string           `yaml:"cover_image"`
	Chapters   []ChapterOutline `yaml:"chapters"`

	// Path is the file the outline was read from.
	Path string `yaml:"-"`
}

// ChapterOutline is one chapter with a run of numbered problems.
type ChapterOutline struct {
	Name     string `yaml:"name"`
	Problems int    `yaml:"problems"`
	Start    int    `yaml:"start"`
}

// FirstProblem returns the first problem number, defaulting to 1.
func (c ChapterOutline) FirstProblem() int {
	if c.Start <= 0 {
		return 1
	}
	return c.Start
}
