// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [UserRepository] : account persistence, profile updates, cascading deletion
//   - [GraphRepository] : follow edges, friend requests, symmetric-effect blocks
//   - [PostRepository] : posts with embedded music items and assembled engagement
//   - [EngagementRepository] : toggle likes, comments, ratings
//   - [MessageRepository] : append-only direct message mailboxes
//   - [TokenRepository] : provider credentials and in-flight PKCE attempts
//
// The document-shaped sets of the domain (follows, blocked, likes) are
// relation tables with uniqueness constraints; toggling and compound
// mutations run as single statements or single transactions so concurrent
// callers cannot produce duplicates or lost updates. Multi-entity cleanup
// (user deletion) orders its steps so a partial failure never leaves a
// dangling reference.
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, post #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
