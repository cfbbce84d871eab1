// Package domain defines the core business entities for ferry.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Item: A unit of ingestible content with a stable content hash
//   - Source: A logical origin identified by a stable key
//   - Batch: A backend-owned grouping of uploaded items
//   - SyncState: The commit cursor for incremental repository sync
//   - RunSummary: The outcome of one ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, golang.org/x/crypto/sha3
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
