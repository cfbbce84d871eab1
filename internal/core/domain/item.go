package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// ItemKind identifies what produced an item. The kind selects the hash
// algorithm and how the item's URI is built.
type ItemKind string

// Available item kinds.
const (
	// ItemKindFile is a file read from the local filesystem or WebDAV.
	ItemKindFile ItemKind = "file"

	// ItemKindRepoFile is a file fetched from a Git hosting platform.
	ItemKindRepoFile ItemKind = "repo_file"

	// ItemKindIssue is a repository issue rendered to Markdown.
	ItemKindIssue ItemKind = "issue"
)

// IsValid returns true if the item kind is recognised.
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindFile, ItemKindRepoFile, ItemKindIssue:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ItemKind) String() string {
	return string(k)
}

// MIMETypeOctetStream is the fallback MIME type for unrecognised content.
// Inventory validation treats it as a rejection, never a silent default.
const MIMETypeOctetStream = "application/octet-stream"

// MIMETypeMarkdown is the MIME type for rendered issue documents.
const MIMETypeMarkdown = "text/markdown"

// Metadata keys that are internal to the agent and must be stripped
// before an item's metadata is uploaded.
var internalMetadataKeys = []string{
	"path",
	"sha256",
	"size",
	"source",
	"batch_id",
	"source_uri",
}

// Item is a unit of ingestible content.
type Item struct {
	// URI is unique within a source and stable across runs
	// (a relative path, or /owner/repo/issues/N for issues).
	URI string

	// Kind selects the hash algorithm for this item.
	Kind ItemKind

	// Content is the raw bytes: file bytes, or the rendered
	// issue-as-Markdown bytes.
	Content []byte

	// ContentHash is the hex digest of Content. The algorithm is a
	// function of Kind, not uniform across kinds.
	ContentHash string

	// MIMEType is the best-effort detected type.
	MIMEType string

	// Metadata is passed through to the backend and excluded from
	// hashing.
	Metadata map[string]string

	// LastModified is optional; availability varies by source.
	// Absence means unknown, never "oldest".
	LastModified *time.Time
}

// UploadMetadata returns a copy of the item's metadata with the
// agent-internal keys removed.
func (i Item) UploadMetadata() map[string]string {
	out := make(map[string]string, len(i.Metadata))
	for k, v := range i.Metadata {
		out[k] = v
	}
	for _, k := range internalMetadataKeys {
		delete(out, k)
	}
	return out
}

// Extension returns the item's lower-cased file extension without the
// leading dot, or "" when the URI has none.
func (i Item) Extension() string {
	return PathExtension(i.URI)
}

// PathExtension returns the lower-cased extension of the last path
// segment without the leading dot, or "" when there is none.
func PathExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtensionAllowed reports whether the path's extension is in the
// allow-list. An empty allow-list admits nothing.
func ExtensionAllowed(path string, allowed []string) bool {
	ext := PathExtension(path)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
