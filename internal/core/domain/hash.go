package domain

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// The hash algorithm is keyed by item kind and is load-bearing for
// match/mismatch classification against backend state that already
// exists. Filesystem/WebDAV files and rendered issues use SHA-2-256;
// repository files fetched from a Git hosting API use SHA-3-256. The
// split has no stated security rationale; do not unify the algorithms,
// doing so would reclassify every previously matched repository file
// as a mismatch.

// HashContent returns the hex digest of content for the given kind.
// It is pure and never falls back between algorithms.
func HashContent(kind ItemKind, content []byte) string {
	if kind == ItemKindRepoFile {
		sum := sha3.Sum256(content)
		return hex.EncodeToString(sum[:])
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the SHA-2-256 hex digest used for filesystem and
// WebDAV files.
func HashFile(content []byte) string {
	return HashContent(ItemKindFile, content)
}

// HashRepoFile returns the SHA-3-256 hex digest used for repository
// files.
func HashRepoFile(content []byte) string {
	return HashContent(ItemKindRepoFile, content)
}

// HashIssue returns the SHA-2-256 hex digest of a fully rendered issue
// document. Hashing happens after Markdown rendering, so a template
// change reclassifies every issue on the next diff.
func HashIssue(rendered []byte) string {
	return HashContent(ItemKindIssue, rendered)
}
