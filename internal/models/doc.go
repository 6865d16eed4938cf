// Package models defines the entities that flow through a curation run.
//
// The package contains two categories of types:
//
// 1. Pipeline values: immutable-per-run structs passed between stages
//   - [Message] : a chat message with its reactions
//   - [TrackCandidate] : a track link pulled from a message, tagged with its [Service]
//   - [Track] : a catalog track as returned by search or lookup
//   - [ResolvedTrack] : a candidate mapped onto a catalog track, the unit of deduplication
//   - [Stat] / [Stats] : weighted tallies produced by aggregation
//
// 2. Persistent entities: database-backed records
//   - [StoredToken] : OAuth credentials for the catalog service
//
// Persistent entities implement [Model] and are saved through a [Store].
package models
