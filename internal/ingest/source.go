// Package ingest wires a document source through chunking, metadata
// generation, and embedding into the chunk store for one (user, course)
// scope.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/studyloop/course-rag-mcp/internal/github"
)

// Document is one raw course file ready for chunking.
type Document struct {
	FileName string // base name used as the chunk FileName scope key
	Content  string
	Origin   string // provenance recorded in chunk metadata (path or URL)
}

// Source yields the documents of one course corpus.
type Source interface {
	// List returns the relative names of all ingestible documents.
	List(ctx context.Context) ([]string, error)
	// Fetch loads one document by its listed name.
	Fetch(ctx context.Context, name string) (*Document, error)
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// DirSource reads course files from a local directory tree.
type DirSource struct {
	root string
}

// NewDirSource creates a source over the given directory.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) List(_ context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isCourseFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return names, nil
}

func (s *DirSource) Fetch(_ context.Context, name string) (*Document, error) {
	full := filepath.Join(s.root, filepath.FromSlash(name))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return &Document{
		FileName: name,
		Content:  string(data),
		Origin:   full,
	}, nil
}

// GitHubSource reads course files from a GitHub repository directory, for
// courses that publish their materials as a repo.
type GitHubSource struct {
	fetcher *github.Fetcher
}

// NewGitHubSource creates a source over the given repository fetcher.
func NewGitHubSource(fetcher *github.Fetcher) *GitHubSource {
	return &GitHubSource{fetcher: fetcher}
}

func (s *GitHubSource) List(ctx context.Context) ([]string, error) {
	return s.fetcher.ListDocs(ctx)
}

func (s *GitHubSource) Fetch(ctx context.Context, name string) (*Document, error) {
	fetched, err := s.fetcher.FetchDoc(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Document{
		FileName: fetched.Path,
		Content:  fetched.Content,
		Origin:   fetched.URL,
	}, nil
}
