package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
)

// FetchedDoc represents a course document fetched from GitHub.
type FetchedDoc struct {
	Path    string // Relative path within the materials directory
	Content string // Full file content
	SHA     string // File's Git blob SHA
	URL     string // GitHub raw URL
}

// Fetcher lists and fetches course documents from one GitHub repository
// directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string // empty means repository root
}

// NewFetcher creates a fetcher for the given repository and base path.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// isCourseFile reports whether a file name looks like ingestible course
// material.
func isCourseFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// ListDocs recursively lists all ingestible files under the base path.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocsRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if isCourseFile(*item.Name) {
				docs = append(docs, itemRelPath)
			}

		case "dir":
			itemFullPath := path.Join(fullPath, *item.Name)
			subDocs, err := f.listDocsRecursive(ctx, itemFullPath, itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// FetchDoc fetches the content of one course file.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*FetchedDoc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	rawURL := fmt.Sprintf(
		"https://raw.githubusercontent.com/%s/%s/main/%s",
		f.owner,
		f.repo,
		fullPath,
	)

	return &FetchedDoc{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
		URL:     rawURL,
	}, nil
}
