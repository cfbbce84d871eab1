// Package services implements the core ingestion logic behind the
// driving ports: status diffing, batch resolution, the ingestion run
// state machine, and commit-based incremental sync.
//
// Services depend only on domain types and driven ports. Everything
// they reach out to (backend, source providers, configuration) is
// injected through interfaces, so every service is testable with
// struct mocks.
package services
