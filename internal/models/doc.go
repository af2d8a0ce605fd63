// Package models defines the data exchanged between the export reader, the import engine and the journal.
//
// The package contains two categories of types:
//
// 1. Export documents: the streaming service's GDPR playlist file
//   - [Export] : the decoded Playlist*.json file
//   - [SourcePlaylist] : one exported playlist
//   - [PlaylistItem] : a track, podcast episode or local file, discriminated by [ItemKind]
//
// 2. Import outcomes and the persistent journal
//   - [PlaylistResult] and [TrackResult] : what happened to each playlist and item
//   - [ImportRun] : a journaled invocation of the import command
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
