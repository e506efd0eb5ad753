package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
	"github.com/kug0115-cpu/kookmath/internal/storage"
	"github.com/kug0115-cpu/kookmath/internal/web"
)

const baseURL = "https://kookmath.test/"

type failingWrites struct {
	storage.Gateway
}

func (failingWrites) Write(context.Context, []byte) error {
	return errors.New("disk full")
}

type fakeChecker struct {
	name string
	err  error
}

func (c fakeChecker) Name() string { return c.name }
func (c fakeChecker) HealthCheck(context.Context) error { return c.err }

type fixture struct {
	shelf   *shelf.Shelf
	router  http.Handler
	gradeID string
	bookID  string
}

func newFixture(t *testing.T, admin bool) *fixture {
	t.Helper()
	s := shelf.New(shelf.Config{
		Gateway:      storage.NewFileGateway(filepath.Join(t.TempDir(), "books.json")),
		ShareBaseURL: baseURL,
	})
	s.Open(t.Context())

	ctx := t.Context()
	g, err := s.AddGrade(ctx, shelf.NewGrade{Name: "중학 수학"})
	require.NoError(t, err)
	b, err := s.AddBook(ctx, shelf.NewBook{GradeID: g.ID, Title: "쎈 중등", CoverColor: "#3498db"})
	require.NoError(t, err)
	_, err = s.AddChapter(ctx, shelf.NewChapter{BookID: b.ID, Name: "1. 소인수분해"})
	require.NoError(t, err)
	_, err = s.AddVideos(ctx, shelf.NewVideos{BookID: b.ID, ProblemNo: 1, Title: "도입", URL: "https://www.youtube.com/watch?v=abc"})
	require.NoError(t, err)
	_, err = s.AddVideos(ctx, shelf.NewVideos{BookID: b.ID, ProblemNo: 2})
	require.NoError(t, err)
	_, err = s.AddGrade(ctx, shelf.NewGrade{Name: "초등 수학"})
	require.NoError(t, err)

	srv := web.NewServer(web.Config{Shelf: s, AdminEnabled: admin})
	return &fixture{shelf: s, router: srv.Router(), gradeID: g.ID, bookID: b.ID}
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := shelf.New(shelf.Config{Gateway: storage.NewFileGateway(filepath.Join(t.TempDir(), "b.json"))})

	tests := []struct {
		name       string
		checkers   []web.Checker
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz without dependencies",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "readyz with healthy database",
			checkers:   []web.Checker{fakeChecker{name: "database"}},
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "readyz with failing cache",
			checkers:   []web.Checker{fakeChecker{name: "database"}, fakeChecker{name: "cache", err: errors.New("connection refused")}},
			path:       "/readyz",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"failed":{"cache":"connection refused"},"status":"unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := web.NewServer(web.Config{Shelf: s, Checkers: tt.checkers}).Router()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestShelfPage(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "초등 수학"), strings.Index(body, "중학 수학"), "grades in display order")
	assert.Contains(t, body, "?book="+f.bookID)
	assert.Contains(t, body, "background:#3498db")
	assert.Contains(t, body, "교재가 없습니다")
}

func TestShelfPage_DeepLink(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/?book="+f.bookID+"&chapter=0", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<details id="chapter-0" open>`)
	assert.Contains(t, body, "https://www.youtube.com/embed/abc")
	assert.Contains(t, body, "영상 준비 중", "unlinked video shown as pending")
	assert.Contains(t, body, "중학 수학")
	assert.NotContains(t, body, baseURL, "share links are admin only")
}

func TestShelfPage_DeepLinkChapterOutOfRange(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/?book="+f.bookID+"&chapter=7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), " open>")
	assert.Contains(t, rec.Body.String(), "1. 소인수분해")
}

func TestShelfPage_UnknownBookFallsBack(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/?book=book_123&chapter=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "초등 수학")
	assert.NotContains(t, rec.Body.String(), "<details")
}

func TestShelfPage_AdminShowsShareLink(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodGet, "/?book="+f.bookID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), baseURL+"?book="+f.bookID+"&amp;chapter=0")
	assert.Contains(t, rec.Body.String(), "다음 문제 번호: 3")
	assert.Contains(t, rec.Body.String(), `data-problem="1" data-title="도입"`)
	assert.Contains(t, rec.Body.String(), `data-problem="2" data-title=""`)
}

func TestCatalogETag(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	doc, err := f.shelf.Document()
	require.NoError(t, err)
	assert.Equal(t, web.ETag(doc), etag)
	assert.Equal(t, doc, rec.Body.Bytes())

	got := catalog.Load(rec.Body.Bytes())
	assert.Len(t, got.Grades, 2)

	tests := []struct {
		name        string
		ifNoneMatch string
		want        int
	}{
		{"matching", etag, http.StatusNotModified},
		{"weak matching", "W/" + etag, http.StatusNotModified},
		{"in list", `"other", ` + etag, http.StatusNotModified},
		{"star", "*", http.StatusNotModified},
		{"stale", `"stale"`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/catalog", "", "If-None-Match", tt.ifNoneMatch)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCatalogETag_ChangesAfterEdit(t *testing.T) {
	f := newFixture(t, true)
	before := f.do(t, http.MethodGet, "/api/catalog", "").Header().Get("ETag")

	rec := f.do(t, http.MethodPost, "/api/grades", `{"name":"특강"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	after := f.do(t, http.MethodGet, "/api/catalog", "", "If-None-Match", before)
	assert.Equal(t, http.StatusOK, after.Code)
	assert.NotEqual(t, before, after.Header().Get("ETag"))
}

func TestBookAndLink(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"book", "/api/books/" + f.bookID, http.StatusOK},
		{"unknown book", "/api/books/book_missing", http.StatusNotFound},
		{"link", "/api/books/" + f.bookID + "/chapters/0/link", http.StatusOK},
		{"link chapter out of range", "/api/books/" + f.bookID + "/chapters/4/link", http.StatusNotFound},
		{"link bad index", "/api/books/" + f.bookID + "/chapters/x/link", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := f.do(t, http.MethodGet, "/api/books/"+f.bookID+"/chapters/0/link", "")
	var link struct {
		Link string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &link))
	assert.Equal(t, baseURL+"?book="+f.bookID+"&chapter=0", link.Link)
}

func TestAdminRoutesDisabled(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/grades", `{"name":"특강"}`)

	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
	assert.Len(t, f.shelf.Snapshot().Grades, 2)
}

func TestAdminAPI(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/api/books", `{"new_grade_name":"고등 수학","title":"수학의 정석"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var book catalog.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.NotNil(t, book.CoverColor)

	rec = f.do(t, http.MethodPost, "/api/books/"+book.ID+"/chapters", `{"name":"1. 다항식"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"index":0,"link":"`+baseURL+`?book=`+book.ID+`&chapter=0"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/books/"+book.ID+"/chapters/0/videos", `{"problem_no":5,"count":3,"title":"ignored"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added struct {
		Videos []catalog.Video `json:"videos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	require.Len(t, added.Videos, 3)
	assert.Equal(t, "7번 문제", added.Videos[2].Title)

	rec = f.do(t, http.MethodPut, "/api/books/"+book.ID+"/chapters/0/videos/0", `{"problem_no":9,"title":"","url":"https://youtu.be/z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated catalog.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	videos := updated.Chapters[0].Videos
	assert.Equal(t, []int{6, 7, 9}, []int{videos[0].ProblemNo, videos[1].ProblemNo, videos[2].ProblemNo})
	assert.Equal(t, "https://youtu.be/z", videos[2].URL)

	g, idx, ok := f.shelf.Snapshot().BookLocation(book.ID)
	require.True(t, ok)
	rec = f.do(t, http.MethodDelete, "/api/grades/"+g.ID+"/books/"+strconv.Itoa(idx), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err := f.shelf.Book(book.ID)
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestAdminAPI_Errors(t *testing.T) {
	f := newFixture(t, true)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"malformed body", http.MethodPost, "/api/grades", `{"name":`, http.StatusBadRequest},
		{"blank grade name", http.MethodPost, "/api/grades", `{"name":"  "}`, http.StatusBadRequest},
		{"book without grade", http.MethodPost, "/api/books", `{"title":"x"}`, http.StatusBadRequest},
		{"book in unknown grade", http.MethodPost, "/api/books", `{"grade_id":"grade_nope","title":"x"}`, http.StatusNotFound},
		{"chapter of unknown book", http.MethodPost, "/api/books/book_nope/chapters", `{"name":"1"}`, http.StatusNotFound},
		{"videos in missing chapter", http.MethodPost, "/api/books/" + f.bookID + "/chapters/3/videos", `{"problem_no":1}`, http.StatusNotFound},
		{"too many videos", http.MethodPost, "/api/books/" + f.bookID + "/chapters/0/videos", `{"problem_no":1,"count":1000}`, http.StatusBadRequest},
		{"edit missing video", http.MethodPut, "/api/books/" + f.bookID + "/chapters/0/videos/9", `{"problem_no":1}`, http.StatusNotFound},
		{"remove out of range", http.MethodDelete, "/api/grades/" + f.gradeID + "/books/5", "", http.StatusNotFound},
		{"remove negative", http.MethodDelete, "/api/grades/" + f.gradeID + "/books/-1", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAdminAPI_PersistFailureKeepsChange(t *testing.T) {
	broken := shelf.New(shelf.Config{
		Gateway:      failingWrites{Gateway: storage.NewFileGateway(filepath.Join(t.TempDir(), "b.json"))},
		ShareBaseURL: baseURL,
	})
	broken.Open(t.Context())
	router := web.NewServer(web.Config{Shelf: broken, AdminEnabled: true}).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/grades", bytes.NewBufferString(`{"name":"특강"}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "not saved")
	assert.Len(t, broken.Snapshot().Grades, 1)
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/export.xlsx", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "kookmath.xlsx")
	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"초등 수학", "중학 수학"}, wb.GetSheetList())
}
