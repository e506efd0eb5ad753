package web

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/kug0115-cpu/kookmath/internal/catalog"
	"github.com/kug0115-cpu/kookmath/internal/export"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

// ETag returns the strong entity tag of a catalog document.
func ETag(doc []byte) string {
	sum := blake2b.Sum256(doc)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	doc, err := s.shelf.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	etag := ETag(doc)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", jsonMediaType)
	_, _ = w.Write(doc)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.shelf.Snapshot()); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="kookmath.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.shelf.Book(chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type linkResponse struct {
	BookID  string `json:"book_id"`
	Chapter int    `json:"chapter"`
	Link    string `json:"link"`
}

func (s *Server) handleShareLink(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	link, err := s.shelf.ShareLink(bookID, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{BookID: bookID, Chapter: index, Link: link})
}

func (s *Server) handleAddGrade(w http.ResponseWriter, r *http.Request) {
	var req shelf.NewGrade
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	g, err := s.shelf.AddGrade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req shelf.NewBook
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := s.shelf.AddBook(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.shelf.RemoveBook(r.Context(), chi.URLParam(r, "gradeID"), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chapterResponse struct {
	Index int    `json:"index"`
	Link  string `json:"link"`
}

func (s *Server) handleAddChapter(w http.ResponseWriter, r *http.Request) {
	var req shelf.NewChapter
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.BookID = chi.URLParam(r, "bookID")

	index, err := s.shelf.AddChapter(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	link, err := s.shelf.ShareLink(req.BookID, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapterResponse{Index: index, Link: link})
}

func (s *Server) handleAddVideos(w http.ResponseWriter, r *http.Request) {
	var req shelf.NewVideos
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	req.BookID = chi.URLParam(r, "bookID")
	req.Chapter = index

	added, err := s.shelf.AddVideos(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]catalog.Video{"videos": added})
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req shelf.VideoEdit
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	chapter, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	video, err := intParam(r, "videoIndex")
	if err != nil {
		writeError(w, err)
		return
	}
	req.BookID = chi.URLParam(r, "bookID")
	req.Chapter = chapter
	req.Index = video

	if err := s.shelf.UpdateVideo(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	b, err := s.shelf.Book(req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("rejecting request body", "path", r.URL.Path, "error", err)
		return fmt.Errorf("%w: malformed JSON body", shelf.ErrInvalid)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shelf.ErrInvalid, name)
	}
	return n, nil
}
