// Package models defines domain entities and persistence interfaces for the chorus social service.
//
// The package contains two categories of types:
//
// 1. Records: structs with exported fields, embedded in or owned by an entity
//   - [Comment], [Rating] : engagement embedded in a post
//   - [MusicItem], [Song], [PlaylistPreview] : music content from providers
//   - [Message] : mailbox entries
//   - [TokenRecord], [AuthAttempt] : provider credential state
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [User] : accounts with visibility and denormalized relation tables
//   - [Post] : published music content with embedded engagement
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, and validation.
// The [Repository] interface defines standard CRUD operations for database access.
//
// Field validation runs through a package-level go-playground/validator
// instance; failures wrap [shared.ErrValidation].
package models
