package catalog

import "strings"

// FallbackCoverColor is used for books with neither an image nor a color.
const FallbackCoverColor = "#bdc3c7"

// Linked reports whether the video has a url.
func (v Video) Linked() bool {
	return v.URL != ""
}

// EditableTitle returns the title to prefill an edit form with: empty when
// the title is still the generated default.
func (v Video) EditableTitle() string {
	if v.Title == DefaultTitle(v.ProblemNo) {
		return ""
	}
	return v.Title
}

// EmbedURL returns the url to load in the player. YouTube watch and short
// links are rewritten to embed links.
func (v Video) EmbedURL() string {
	if v.Type != VideoYouTube {
		return v.URL
	}
	switch {
	case strings.Contains(v.URL, "watch?v="):
		return strings.Replace(v.URL, "watch?v=", "embed/", 1)
	case strings.Contains(v.URL, "youtu.be/"):
		return strings.Replace(v.URL, "youtu.be/", "youtube.com/embed/", 1)
	default:
		return v.URL
	}
}

// Cover describes how a book cover is drawn.
type Cover struct {
	Image    string
	Color    string
	Initials string
}

// Cover returns the book's cover: its image when set, otherwise its color
// (or the fallback) with the first two characters of the title.
func (b *Book) Cover() Cover {
	if b.CoverImage != nil && *b.CoverImage != "" {
		return Cover{Image: *b.CoverImage}
	}
	color := FallbackCoverColor
	if b.CoverColor != nil && *b.CoverColor != "" {
		color = *b.CoverColor
	}
	initials := []rune(b.Title)
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return Cover{Color: color, Initials: string(initials)}
}
