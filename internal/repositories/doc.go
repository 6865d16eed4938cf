// Package repositories implements SQLite persistence for the little state mixtape keeps.
//
// Curation itself is stateless between runs; the only thing persisted is the catalog OAuth
// credential, so scheduled runs can refresh tokens without a browser.
//
// Key Implementations:
//   - [TokenRepository] : OAuth token storage keyed by provider
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
