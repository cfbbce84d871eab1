package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/ferry-cli/internal/connectors/treewalk"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
)

// List returns one directory level of the contents API. Symlinks and
// submodules carry no ingestible content and are skipped.
func (p *Provider) List(ctx context.Context, dir string) ([]treewalk.Entry, error) {
	file, entries, err := p.client.Contents(ctx, p.source.Owner, p.source.Repo, dir, p.branch)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, fmt.Errorf("%s is a file, not a directory", dir)
	}

	out := make([]treewalk.Entry, 0, len(entries))
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			out = append(out, treewalk.Entry{Path: e.GetPath(), IsDir: true})
		case "file":
			out = append(out, treewalk.Entry{Path: e.GetPath(), IsDir: false})
		}
	}
	return out, nil
}

// Fetch retrieves one repository file by its repo-relative path.
func (p *Provider) Fetch(ctx context.Context, uri string) (*domain.Item, error) {
	file, _, err := p.client.Contents(ctx, p.source.Owner, p.source.Repo, uri, p.branch)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", uri)
	}

	content, err := p.fileBytes(ctx, file)
	if err != nil {
		return nil, err
	}

	return &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindRepoFile,
		Content:     content,
		ContentHash: domain.HashRepoFile(content),
		MIMEType:    inventory.DetectMIME(uri, content),
		Metadata: map[string]string{
			"filename":  path.Base(uri),
			"extension": domain.PathExtension(uri),
			"size":      strconv.Itoa(len(content)),
		},
	}, nil
}

// fileBytes decodes the contents-API payload, falling back to the blob
// API when the payload comes back empty. GitHub omits inline content
// for files above 1MB.
func (p *Provider) fileBytes(ctx context.Context, file *gh.RepositoryContent) ([]byte, error) {
	if file.Content != nil && *file.Content != "" {
		decoded, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", file.GetPath(), err)
		}
		return []byte(decoded), nil
	}
	if file.GetSize() == 0 {
		return []byte{}, nil
	}

	blob, err := p.client.Blob(ctx, p.source.Owner, p.source.Repo, file.GetSHA())
	if err != nil {
		return nil, err
	}
	return decodeBlob(blob)
}

// decodeBlob unpacks a blob payload. Blob content is base64 with
// embedded newlines; anything else passes through as-is.
func decodeBlob(blob *gh.Blob) ([]byte, error) {
	content := blob.GetContent()
	if blob.GetEncoding() != "base64" {
		return []byte(content), nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode blob %s: %w", blob.GetSHA(), err)
	}
	return raw, nil
}
