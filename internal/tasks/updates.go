package tasks

import (
	"fmt"

	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/services"
)

// ProgressUpdate represents a progress event during an import.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Status  Status // Pending, succeeded or failed
	Nested  bool   // Track-level line under a playlist
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// String renders the update as a status line, e.g. "\t✔ Found ...".
func (u ProgressUpdate) String() string {
	line := u.Status.Glyph() + " " + u.Message
	if u.Nested {
		return "\t" + line
	}
	return line
}

// Operation phase enumeration
type Phase int

const (
	LoadLibrary Phase = iota
	ProcessPlaylist
	SearchTrack
	CreatePlaylist
)

func (p Phase) String() string {
	switch p {
	case LoadLibrary:
		return "load_library"
	case ProcessPlaylist:
		return "process_playlist"
	case SearchTrack:
		return "search_track"
	case CreatePlaylist:
		return "create_playlist"
	default:
		return ""
	}
}

// Status is the outcome carried by an update.
type Status int

const (
	Pending Status = iota
	Succeeded
	Failed
)

// Glyph is the status marker printed before a message.
func (s Status) Glyph() string {
	switch s {
	case Succeeded:
		return "✔"
	case Failed:
		return "✘"
	default:
		return "✱"
	}
}

func plural(n int, word string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%d %s", n, word)
}

func loadingLibraryUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Status:  Pending,
		Step:    0,
		Total:   1,
		Message: "Loading playlists from Apple Music...",
	}
}

func loadedLibraryUpdate(playlists []services.LibraryPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Status:  Succeeded,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %s from Apple Music", plural(len(playlists), "playlist")),
		Data:    playlists,
	}
}

func alreadyExistsUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessPlaylist,
		Status:  Succeeded,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist %s already exists in Apple Music", name),
	}
}

func processingPlaylistUpdate(step, total int, pl models.SourcePlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessPlaylist,
		Status:  Pending,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Processing playlist %q", pl.Name),
		Data:    pl,
	}
}

func searchingTrackUpdate(step, total int, term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Status:  Pending,
		Nested:  true,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching for %q in the Apple Music catalog...", term),
	}
}

func foundTrackUpdate(step, total int, song services.Song, score float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:  SearchTrack,
		Status: Succeeded,
		Nested: true,
		Step:   step,
		Total:  total,
		Message: fmt.Sprintf("Found \"%s - %s\" in the Apple Music catalog (score: %.6f): %s",
			song.Attributes.ArtistName, song.Attributes.Name, score, song.Attributes.URL),
		Data: song,
	}
}

func notFoundTrackUpdate(step, total int, term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Status:  Failed,
		Nested:  true,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping %q: Could not be found in the Apple Music catalog", term),
	}
}

func searchFailedUpdate(step, total int, term string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Status:  Failed,
		Nested:  true,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping %q: Search failed: %v", term, err),
	}
}

func notATrackUpdate(step, total int, item models.PlaylistItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Status:  Failed,
		Nested:  true,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping %q: Not a track", item.String()),
	}
}

func dryRunUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Status:  Pending,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipped creating playlist %q in Apple Music (--dry)", name),
	}
}

func createdPlaylistUpdate(step, total int, res models.PlaylistResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Status:  Succeeded,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Created playlist %q in Apple Music: %s", res.Name, res.URL),
		Data:    res,
	}
}

func appendedPlaylistUpdate(step, total int, res models.PlaylistResult, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Status:  Succeeded,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Added %s to playlist %q in Apple Music: %s", plural(added, "track"), res.Name, res.URL),
		Data:    res,
	}
}

func failedPlaylistUpdate(step, total int, res models.PlaylistResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Status:  Failed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to create playlist %q in Apple Music: %s", res.Name, res.Message),
		Data:    res,
	}
}
