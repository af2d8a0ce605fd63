// Package tasks orchestrates a playlist import into the Apple Music library with real-time progress reporting.
//
// # Import
//
// [ImportEngine.Run] processes the selected export playlists in order:
//
//  1. Loads every library playlist once (all pages) for the exact-name existence check
//  2. Skips playlists that already exist, unless --append or --dry is set
//  3. Searches the catalog for "<artist> <track>" for each track item and keeps the best
//     candidate whose compound score is strictly above the threshold
//  4. Creates the playlist with the matched songs, or appends them to the existing one
//
// Episodes and local files are reported as skipped. A failed search or a failed creation is
// recorded on that track or playlist and the run continues; a failure loading the library
// (including a failed bearer token bootstrap) aborts before any playlist is processed.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, status, step counters, messages, and optional data
// for advanced UI rendering. Updates use select with default to prevent blocking.
//
// # Journal
//
// The optional [Journal] interface receives each playlist result as soon as it is final.
// Journal errors are logged and never interrupt the import.
package tasks
