package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_ListsOnlyCourseFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "week1"), 0o755))

	files := map[string]string{
		"syllabus.md":          "# Syllabus",
		"week1/notes.markdown": "# Week 1",
		"week1/transcript.txt": "hello",
		"week1/lecture.pdf":    "binary",
		"grades.csv":           "a,b",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte(content), 0o644))
	}

	source := NewDirSource(root)
	names, err := source.List(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"syllabus.md", "week1/notes.markdown", "week1/transcript.txt"}, names)
}

func TestDirSource_FetchReadsContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "syllabus.md"), []byte("# CS101 Syllabus"), 0o644))

	source := NewDirSource(root)
	doc, err := source.Fetch(context.Background(), "syllabus.md")
	require.NoError(t, err)

	assert.Equal(t, "syllabus.md", doc.FileName)
	assert.Equal(t, "# CS101 Syllabus", doc.Content)
	assert.NotEmpty(t, doc.Origin)
}

func TestClassifyDocumentType(t *testing.T) {
	cases := map[string]string{
		"cs101-syllabus.md":      "syllabus",
		"week3/slides-intro.md":  "slides",
		"assignment2.md":         "assignment",
		"homework_5.txt":         "assignment",
		"lecture12-transcript.txt": "transcript",
		"week3/notes.md":         "lecture_notes",
	}

	for name, want := range cases {
		assert.Equal(t, want, classifyDocumentType(name), "file %s", name)
	}
}
