// Package webdav provides the WebDAV source provider. It walks a
// remote collection with the bounded tree walker and serves lazy
// content reads for manifest-driven runs.
package webdav

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/custodia-labs/ferry-cli/internal/connectors/treewalk"
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/inventory"
)

// Ensure Provider satisfies the provider and walker contracts.
var (
	_ driven.SourceProvider = (*Provider)(nil)
	_ treewalk.Source       = (*Provider)(nil)
)

// client is the slice of the WebDAV client the provider needs.
type client interface {
	ReadDir(path string) ([]os.FileInfo, error)
	Read(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
}

// Provider reads items from a WebDAV share. Item URIs are paths
// relative to the configured base collection, so they line up with
// manifest record paths.
type Provider struct {
	sourceID string
	base     string
	client   client
	walker   *treewalk.Walker
}

// New creates a WebDAV provider for the share in settings, rooted at
// the base collection path.
func New(sourceID, base string, settings domain.WebDAVSettings, maxConcurrent int) (*Provider, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("webdav source: %w", domain.ErrNotConfigured)
	}
	c := gowebdav.NewClient(settings.Endpoint, settings.Username, settings.Password)
	c.SetTimeout(domain.DefaultHTTPTimeout)
	return newWithClient(sourceID, base, c, maxConcurrent), nil
}

// newWithClient wires a provider over any client implementation.
func newWithClient(sourceID, base string, c client, maxConcurrent int) *Provider {
	p := &Provider{sourceID: sourceID, base: base, client: c}
	p.walker = treewalk.New(p, maxConcurrent)
	return p
}

// Kind returns the WebDAV source kind.
func (p *Provider) Kind() domain.SourceKind {
	return domain.SourceKindWebDAV
}

// SourceID returns the configured source identifier.
func (p *Provider) SourceID() string {
	return p.sourceID
}

// Base returns the collection path the provider is rooted at.
func (p *Provider) Base() string {
	return p.base
}

// ListTree walks the collection under root and returns every allowed
// leaf, content included, sorted by URI.
func (p *Provider) ListTree(ctx context.Context, root string, extensions []string) ([]domain.Item, error) {
	if _, err := p.client.Stat(p.abs(root)); err != nil {
		return nil, wrapError("stat", p.abs(root), err)
	}
	return p.walker.Walk(ctx, root, extensions)
}

// ListIssues is not supported for WebDAV sources.
func (p *Provider) ListIssues(_ context.Context, _ bool, _ *time.Time) ([]domain.Issue, error) {
	return nil, fmt.Errorf("webdav source: %w", domain.ErrNotSupported)
}

// List returns one collection's entries for the walker. Hidden
// entries are skipped.
func (p *Provider) List(ctx context.Context, dir string) ([]treewalk.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := p.abs(dir)
	infos, err := p.client.ReadDir(full)
	if err != nil {
		return nil, wrapError("list", full, err)
	}
	entries := make([]treewalk.Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, treewalk.Entry{
			Path:  path.Join(dir, name),
			IsDir: info.IsDir(),
		})
	}
	return entries, nil
}

// Fetch downloads one file relative to the base collection and builds
// its item. WebDAV offers no reliable change timestamp, so
// LastModified stays unset.
func (p *Provider) Fetch(ctx context.Context, uri string) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := p.abs(uri)
	content, err := p.client.Read(full)
	if err != nil {
		return nil, wrapError("read", full, err)
	}

	return &domain.Item{
		URI:         uri,
		Kind:        domain.ItemKindFile,
		Content:     content,
		ContentHash: domain.HashFile(content),
		MIMEType:    inventory.DetectMIME(uri, content),
		Metadata: map[string]string{
			"filename":  path.Base(uri),
			"extension": domain.PathExtension(uri),
			"size":      strconv.Itoa(len(content)),
		},
	}, nil
}

// abs maps a base-relative URI onto the share's absolute path space.
func (p *Provider) abs(rel string) string {
	return path.Join("/", p.base, rel)
}

// wrapError converts WebDAV client failures into fetch errors so the
// driver's authorization short-circuit sees the status code.
func wrapError(op, url string, err error) error {
	for _, code := range []int{401, 403, 404} {
		if gowebdav.IsErrCode(err, code) {
			return &domain.FetchError{Op: op, URL: url, StatusCode: code, Err: err}
		}
	}
	return &domain.FetchError{Op: op, URL: url, Err: err}
}
