// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and connectors/adapters
// implement them.
//
// # Required Interfaces
//
//   - Ingester: the document-ingestion backend (batches, status diff,
//     uploads, workflows, sync state)
//   - SourceProvider: enumerates and fetches items from one source
//   - RepositoryProvider: SourceProvider plus commit history, for Git
//     hosting platforms
//   - ProviderFactory: builds repository providers from a source and
//     run options
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
