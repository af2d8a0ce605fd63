package ui

import (
	"fmt"

	"github.com/desertthunder/spta/internal/models"
)

// playlistItem wraps [models.SourcePlaylist] with its checked state.
type playlistItem struct {
	playlist models.SourcePlaylist
	checked  bool
}

func (i playlistItem) Title() string { return i.playlist.Name }
func (i playlistItem) Description() string {
	tracks := len(i.playlist.Tracks())
	desc := fmt.Sprintf("%d tracks", tracks)
	if other := len(i.playlist.Items) - tracks; other > 0 {
		desc = fmt.Sprintf("%s • %d other items", desc, other)
	}
	if i.playlist.LastModifiedDate != "" {
		desc = fmt.Sprintf("%s • modified %s", desc, i.playlist.LastModifiedDate)
	}
	return desc
}

func (i playlistItem) checkbox() string {
	if i.checked {
		return "[x]"
	}
	return "[ ]"
}
