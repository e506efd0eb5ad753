package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

type shelfPage struct {
	Admin  bool
	Grades []gradeView
	Book   *bookView
}

type gradeView struct {
	Name  string
	Books []bookCard
}

type bookCard struct {
	ID    string
	Title string
	Cover catalog.Cover
}

type bookView struct {
	bookCard
	Grade    string
	Chapters []chapterView
}

type chapterView struct {
	Index         int
	Name          string
	Open          bool
	Link          string
	NextProblemNo int
	Videos        []videoView
}

type videoView struct {
	ProblemNo int
	Title     string
	EditTitle string
	Linked    bool
	File      bool
	EmbedURL  string
}

type pageRenderer struct {
	tpl *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{tpl: template.Must(template.New("page").Parse(pageTpl))}
}

func (p *pageRenderer) render(w http.ResponseWriter, status int, page shelfPage) {
	var buf bytes.Buffer
	if err := p.tpl.Execute(&buf, page); err != nil {
		slog.Error("failed to render shelf page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleShelf renders every grade, or a single book when the query carries a
// deep link to a known book.
func (s *Server) handleShelf(w http.ResponseWriter, r *http.Request) {
	page := shelfPage{Admin: s.admin}

	if view, ok := s.shelf.ResolveDeepLink(r.URL.Query()); ok {
		page.Book = s.bookView(view)
		s.page.render(w, http.StatusOK, page)
		return
	}

	for _, g := range s.shelf.SortedGrades() {
		gv := gradeView{Name: g.Name}
		for _, b := range g.Books {
			gv.Books = append(gv.Books, bookCard{ID: b.ID, Title: b.Title, Cover: b.Cover()})
		}
		page.Grades = append(page.Grades, gv)
	}
	s.page.render(w, http.StatusOK, page)
}

func (s *Server) bookView(view shelf.View) *bookView {
	b := view.Book
	bv := &bookView{bookCard: bookCard{ID: b.ID, Title: b.Title, Cover: b.Cover()}}
	if g, _, ok := s.shelf.Snapshot().BookLocation(b.ID); ok {
		bv.Grade = g.Name
	}
	for i, ch := range b.Chapters {
		cv := chapterView{
			Index:         i,
			Name:          ch.Name,
			Open:          view.HasChapter && view.Chapter == i,
			NextProblemNo: ch.NextProblemNo(),
		}
		if s.admin {
			cv.Link = catalog.BuildShareLink(s.shelf.ShareBaseURL(), b.ID, i)
		}
		for _, v := range ch.Videos {
			cv.Videos = append(cv.Videos, videoView{
				ProblemNo: v.ProblemNo,
				Title:     v.Title,
				EditTitle: v.EditableTitle(),
				Linked:    v.Linked(),
				File:      v.Type == catalog.VideoFile,
				EmbedURL:  v.EmbedURL(),
			})
		}
		bv.Chapters = append(bv.Chapters, cv)
	}
	return bv
}

const pageTpl = `<!doctype html>
<html lang="ko">
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{if .Book}}{{.Book.Title}} · {{end}}국수 문제 풀이</title>
<style>
body{font-family:system-ui,-apple-system,"Apple SD Gothic Neo","Malgun Gothic",sans-serif;max-width:1100px;margin:0 auto;padding:1rem;color:#2c3e50}
h2{border-bottom:2px solid #ecf0f1;padding-bottom:.3rem}
.books{display:grid;grid-template-columns:repeat(auto-fill,minmax(140px,1fr));gap:16px}
.book{display:block;text-decoration:none;color:inherit}
.cover{aspect-ratio:3/4;border-radius:6px;display:flex;align-items:center;justify-content:center;color:#fff;font-size:2rem;font-weight:700;overflow:hidden}
.cover img{width:100%;height:100%;object-fit:cover}
.title{margin-top:.4rem;font-size:.95rem}
details{border:1px solid #ecf0f1;border-radius:6px;margin:.5rem 0;padding:.5rem 1rem}
summary{cursor:pointer;font-weight:600}
.video{margin:.75rem 0}
.video iframe,.video video{width:100%;max-width:640px;aspect-ratio:16/9;border:0}
.pending{color:#95a5a6}
.share{font-size:.8rem;color:#7f8c8d;word-break:break-all}
.empty{color:#95a5a6}
</style>
{{if .Book}}
<p><a href="./">← 전체 교재</a></p>
<header>
  <h1>{{.Book.Title}}</h1>
  {{if .Book.Grade}}<p>{{.Book.Grade}}</p>{{end}}
</header>
{{range .Book.Chapters}}
<details id="chapter-{{.Index}}"{{if .Open}} open{{end}}>
  <summary>{{.Name}}</summary>
  {{if $.Admin}}{{if .Link}}<p class="share">{{.Link}}</p>{{end}}<p class="share">다음 문제 번호: {{.NextProblemNo}}</p>{{end}}
  {{range .Videos}}
  <div class="video"{{if $.Admin}} data-problem="{{.ProblemNo}}" data-title="{{.EditTitle}}"{{end}}>
    <h3>{{.Title}}</h3>
    {{if not .Linked}}<p class="pending">영상 준비 중</p>
    {{else if .File}}<video controls src="{{.EmbedURL}}"></video>
    {{else}}<iframe src="{{.EmbedURL}}" allowfullscreen loading="lazy"></iframe>{{end}}
  </div>
  {{else}}<p class="empty">등록된 영상이 없습니다.</p>{{end}}
</details>
{{else}}<p class="empty">단원이 없습니다.</p>{{end}}
{{else}}
<h1>국수 문제 풀이</h1>
{{range .Grades}}
<section>
  <h2>{{.Name}}</h2>
  <div class="books">
  {{range .Books}}
    <a class="book" href="?book={{.ID}}">
      {{if .Cover.Image}}<div class="cover"><img src="{{.Cover.Image}}" alt="{{.Title}}" /></div>
      {{else}}<div class="cover" style="background:{{.Cover.Color}}">{{.Cover.Initials}}</div>{{end}}
      <div class="title">{{.Title}}</div>
    </a>
  {{else}}<p class="empty">교재가 없습니다.</p>{{end}}
  </div>
</section>
{{else}}<p class="empty">등록된 교재가 없습니다.</p>{{end}}
{{end}}
</html>
`
