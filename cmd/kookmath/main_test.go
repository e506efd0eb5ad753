package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "books.json")
	t.Setenv("KOOKMATH_STORAGE_DRIVER", "file")
	t.Setenv("KOOKMATH_STORAGE_PATH", path)
	t.Setenv("KOOKMATH_SHARE_BASE_URL", "https://x/")
	t.Setenv("KOOKMATH_LOG_LEVEL", "error")
	t.Setenv("KOOKMATH_CACHE_URL", "")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "kookmath %s", strings.Join(args, " "))
	return strings.TrimSpace(out)
}

func TestCLI_EditFlow(t *testing.T) {
	path := setupEnv(t)

	gradeID := mustRun(t, "grade", "add", "중학 수학")
	assert.True(t, strings.HasPrefix(gradeID, "grade_"))

	bookID := mustRun(t, "book", "add", "--grade", gradeID, "--title", "쎈", "--color", "#3498db")
	assert.True(t, strings.HasPrefix(bookID, "book_"))

	out := mustRun(t, "chapter", "add", bookID, "1. 소인수분해")
	assert.Equal(t, "0\thttps://x/?book="+bookID+"&chapter=0", out)

	out = mustRun(t, "video", "add", bookID, "0", "5", "--count", "3", "--title", "ignored")
	assert.Equal(t, "5\t5번 문제\n6\t6번 문제\n7\t7번 문제", out)

	mustRun(t, "video", "edit", bookID, "0", "0", "5", "--title", "도입", "--url", "https://youtu.be/x")

	link := mustRun(t, "link", bookID, "0")
	assert.Equal(t, "https://x/?book="+bookID+"&chapter=0", link)
	assert.Equal(t, "쎈\t1. 소인수분해", mustRun(t, "resolve", link))

	out = mustRun(t, "show")
	assert.Contains(t, out, "중학 수학 ["+gradeID+"]")
	assert.Contains(t, out, "0. 쎈 ["+bookID+"]")
	assert.Contains(t, out, "0. 1. 소인수분해 (1/3 linked)")

	out = mustRun(t, "show", "--json")
	assert.Contains(t, out, `"title": "도입"`)

	_, err := os.Stat(path)
	require.NoError(t, err)

	mustRun(t, "book", "rm", gradeID, "0")
	assert.NotContains(t, mustRun(t, "show"), bookID)
}

func TestCLI_NewGradeBook(t *testing.T) {
	setupEnv(t)

	mustRun(t, "book", "add", "--new-grade", "특강", "--title", "여름 특강")

	assert.Contains(t, mustRun(t, "show"), "특강 [grade_")
}

func TestCLI_Errors(t *testing.T) {
	setupEnv(t)
	gradeID := mustRun(t, "grade", "add", "초등 수학")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"remove missing book", []string{"book", "rm", gradeID, "5"}, shelf.ErrNotFound},
		{"link unknown book", []string{"link", "book_nope", "0"}, shelf.ErrNotFound},
		{"blank grade", []string{"grade", "add", "  "}, shelf.ErrInvalid},
		{"book without grade", []string{"book", "add", "--title", "x"}, shelf.ErrInvalid},
		{"bad chapter number", []string{"video", "add", "book_nope", "x", "1"}, nil},
		{"missing args", []string{"chapter", "add", "book_nope"}, nil},
		{"resolve non-link", []string{"resolve", "https://x/"}, shelf.ErrInvalid},
		{"resolve unknown book", []string{"resolve", "https://x/?book=book_nope&chapter=0"}, shelf.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCLI_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("KOOKMATH_STORAGE_DRIVER", "mongo")

	_, err := run(t, "show")

	assert.ErrorContains(t, err, "invalid config")
}

func TestCLI_SeedAndExport(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ssen.yaml"), []byte(`
grade: 중학 수학
title: 쎈 중등 1-1
chapters:
  - name: 1. 소인수분해
    problems: 4
`), 0o644))

	out := mustRun(t, "seed", dir)
	assert.True(t, strings.HasPrefix(out, "book_"))
	assert.Contains(t, mustRun(t, "show"), "(0/4 linked)")

	out = mustRun(t, "export", "--format", "yaml")
	assert.Contains(t, out, "problem_no: 4")

	xlsx := filepath.Join(t.TempDir(), "catalog.xlsx")
	mustRun(t, "export", "-o", xlsx)
	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	_, err = run(t, "export", "--format", "csv")
	assert.Error(t, err)
}
