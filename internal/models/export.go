package models

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// DateLayout is the calendar date format used throughout the data export.
const DateLayout = "2006-01-02"

// ItemKind discriminates the entries of an exported playlist.
type ItemKind int

const (
	TrackItem ItemKind = iota
	EpisodeItem
	LocalTrackItem
)

func (k ItemKind) String() string {
	switch k {
	case TrackItem:
		return "track"
	case EpisodeItem:
		return "episode"
	case LocalTrackItem:
		return "local_track"
	default:
		return ""
	}
}

// SourceTrack is a streaming-catalog track as it appears in the export.
type SourceTrack struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName"`
	TrackURI   string `json:"trackUri"`
}

// SearchTerm is the free-text catalog query for the track.
func (t SourceTrack) SearchTerm() string {
	return t.ArtistName + " " + t.TrackName
}

type SourceEpisode struct {
	EpisodeName string `json:"episodeName"`
	ShowName    string `json:"showName"`
	EpisodeURI  string `json:"episodeUri"`
}

// SourceLocalTrack is a file from the user's device; only its URI is exported.
type SourceLocalTrack struct {
	URI string `json:"uri"`
}

// PlaylistItem is one entry of an exported playlist. Exactly one of Track, Episode or LocalTrack is set, as named by Kind.
type PlaylistItem struct {
	Kind       ItemKind
	Track      *SourceTrack
	Episode    *SourceEpisode
	LocalTrack *SourceLocalTrack
	AddedDate  string
}

type playlistItemJSON struct {
	Track      *SourceTrack      `json:"track,omitempty"`
	Episode    *SourceEpisode    `json:"episode,omitempty"`
	LocalTrack *SourceLocalTrack `json:"localTrack,omitempty"`
	AddedDate  string            `json:"addedDate"`
}

// UnmarshalJSON picks the item kind from whichever of track, episode or localTrack is present.
func (i *PlaylistItem) UnmarshalJSON(data []byte) error {
	var raw playlistItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = PlaylistItem{AddedDate: raw.AddedDate}
	switch {
	case raw.Track != nil:
		i.Kind, i.Track = TrackItem, raw.Track
	case raw.Episode != nil:
		i.Kind, i.Episode = EpisodeItem, raw.Episode
	case raw.LocalTrack != nil:
		i.Kind, i.LocalTrack = LocalTrackItem, raw.LocalTrack
	default:
		return fmt.Errorf("playlist item has no track, episode or localTrack")
	}
	return nil
}

func (i PlaylistItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(playlistItemJSON{
		Track:      i.Track,
		Episode:    i.Episode,
		LocalTrack: i.LocalTrack,
		AddedDate:  i.AddedDate,
	})
}

// Added parses AddedDate.
func (i PlaylistItem) Added() (time.Time, error) {
	return time.Parse(DateLayout, i.AddedDate)
}

// String describes the item for skip messages.
func (i PlaylistItem) String() string {
	switch i.Kind {
	case TrackItem:
		return fmt.Sprintf("%s - %s", i.Track.ArtistName, i.Track.TrackName)
	case EpisodeItem:
		return fmt.Sprintf("episode %q of %q", i.Episode.EpisodeName, i.Episode.ShowName)
	case LocalTrackItem:
		return fmt.Sprintf("local track %s", i.LocalTrack.URI)
	default:
		return "unknown item"
	}
}

// SourcePlaylist is a playlist from the export.
type SourcePlaylist struct {
	Name              string         `json:"name"`
	LastModifiedDate  string         `json:"lastModifiedDate"`
	Items             []PlaylistItem `json:"items"`
	Description       string         `json:"description,omitempty"`
	NumberOfFollowers int            `json:"numberOfFollowers"`
}

// Tracks returns the track items in playlist order.
func (p SourcePlaylist) Tracks() []SourceTrack {
	tracks := make([]SourceTrack, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Kind == TrackItem {
			tracks = append(tracks, *item.Track)
		}
	}
	return tracks
}

// Export is the decoded Playlist*.json file of a streaming data export.
type Export struct {
	Playlists []SourcePlaylist `json:"playlists"`
}

// DecodeExport reads an export document.
func DecodeExport(r io.Reader) (*Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode playlist export: %w", err)
	}
	return &export, nil
}

// LoadExport reads and decodes the export file at path.
func LoadExport(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist export: %w", err)
	}
	defer f.Close()

	return DecodeExport(f)
}

// Names lists playlist names in export order.
func (e *Export) Names() []string {
	names := make([]string, len(e.Playlists))
	for i, p := range e.Playlists {
		names[i] = p.Name
	}
	return names
}

// Select returns the playlists whose names exactly match one of names, in export order.
func (e *Export) Select(names []string) []SourcePlaylist {
	selected := []SourcePlaylist{}
	for _, p := range e.Playlists {
		if slices.Contains(names, p.Name) {
			selected = append(selected, p)
		}
	}
	return selected
}
