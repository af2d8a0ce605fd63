package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ObjectType is the kebab-case resource type carried in every catalog and library object.
type ObjectType string

const (
	Albums                 ObjectType = "albums"
	LibraryAlbums          ObjectType = "library-albums"
	Artists                ObjectType = "artists"
	LibraryArtists         ObjectType = "library-artists"
	Songs                  ObjectType = "songs"
	LibrarySongs           ObjectType = "library-songs"
	MusicVideos            ObjectType = "music-videos"
	LibraryMusicVideos     ObjectType = "library-music-videos"
	Playlists              ObjectType = "playlists"
	LibraryPlaylists       ObjectType = "library-playlists"
	Stations               ObjectType = "stations"
	Ratings                ObjectType = "ratings"
	Genres                 ObjectType = "genres"
	Activities             ObjectType = "activities"
	Curators               ObjectType = "curators"
	RecordLabels           ObjectType = "record-labels"
	PersonalRecommendation ObjectType = "personal-recommendation"
)

func (t ObjectType) String() string { return string(t) }

// ContentRating is absent on unrated content.
type ContentRating string

const (
	NoRating ContentRating = ""
	Clean    ContentRating = "clean"
	Explicit ContentRating = "explicit"
)

// Envelope is implemented by every response body the client decodes.
//
// successField names the top-level key that identifies a success payload; failure exposes the embedded error envelope.
type Envelope interface {
	successField() string
	failure() *ErrorResponse
}

// ResponseMeta is attached to list responses.
type ResponseMeta struct {
	Total int `json:"total,omitempty"`
}

// ListResponse is a page of library or catalog objects.
type ListResponse[T any] struct {
	Next string        `json:"next,omitempty"`
	Data []T           `json:"data"`
	Meta *ResponseMeta `json:"meta,omitempty"`
	ErrorResponse
}

func (r *ListResponse[T]) successField() string { return "data" }

// Items returns the objects on this page.
func (r *ListResponse[T]) Items() []T { return r.Data }

// NextPage returns the path of the following page, if any.
func (r *ListResponse[T]) NextPage() (string, bool) { return r.Next, r.Next != "" }

// Artwork holds a templated image URL with {w} and {h} placeholders.
type Artwork struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	URL    string `json:"url"`
}

// URLWithDimensions fills the size placeholders, preferring the artwork's own dimensions.
func (a Artwork) URLWithDimensions(fallbackWidth, fallbackHeight int) string {
	w, h := a.Width, a.Height
	if w == 0 {
		w = fallbackWidth
	}
	if h == 0 {
		h = fallbackHeight
	}
	r := strings.NewReplacer("{w}", strconv.Itoa(w), "{h}", strconv.Itoa(h))
	return r.Replace(a.URL)
}

type PlayParams struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	IsLibrary   bool   `json:"isLibrary,omitempty"`
	Reporting   bool   `json:"reporting,omitempty"`
	GlobalID    string `json:"globalId,omitempty"`
	CatalogID   string `json:"catalogId,omitempty"`
	ReportingID string `json:"reportingId,omitempty"`
	VersionHash string `json:"versionHash,omitempty"`
}

type Preview struct {
	URL string `json:"url"`
}

type Description struct {
	Standard string `json:"standard"`
	Short    string `json:"short,omitempty"`
}

// SongAttributes describes a catalog song.
type SongAttributes struct {
	AlbumName            string        `json:"albumName"`
	ArtistName           string        `json:"artistName"`
	ArtistURL            string        `json:"artistUrl,omitempty"`
	Artwork              Artwork       `json:"artwork"`
	Attribution          string        `json:"attribution,omitempty"`
	AudioVariants        []string      `json:"audioVariants,omitempty"`
	ComposerName         string        `json:"composerName,omitempty"`
	ContentRating        ContentRating `json:"contentRating,omitempty"`
	DiscNumber           int           `json:"discNumber,omitempty"`
	DurationInMillis     int64         `json:"durationInMillis"`
	GenreNames           []string      `json:"genreNames,omitempty"`
	HasLyrics            bool          `json:"hasLyrics"`
	IsAppleDigitalMaster bool          `json:"isAppleDigitalMaster"`
	ISRC                 string        `json:"isrc,omitempty"`
	Name                 string        `json:"name"`
	PlayParams           *PlayParams   `json:"playParams,omitempty"`
	Previews             []Preview     `json:"previews,omitempty"`
	ReleaseDate          string        `json:"releaseDate,omitempty"`
	TrackNumber          int           `json:"trackNumber,omitempty"`
	URL                  string        `json:"url"`
	WorkName             string        `json:"workName,omitempty"`
}

// Song is a catalog song, the candidate type for reconciliation.
type Song struct {
	ID         string         `json:"id"`
	Type       ObjectType     `json:"type"`
	Href       string         `json:"href"`
	Attributes SongAttributes `json:"attributes"`
}

// Object returns the reference used when adding the song to a playlist.
func (s Song) Object() Object { return Object{ID: s.ID, Type: s.Type} }

// Duration converts the catalog's millisecond duration.
func (s Song) Duration() time.Duration {
	return time.Duration(s.Attributes.DurationInMillis) * time.Millisecond
}

// LibrarySongAttributes describes a song saved in the user's library. Album is optional for uploads.
type LibrarySongAttributes struct {
	AlbumName        string        `json:"albumName,omitempty"`
	ArtistName       string        `json:"artistName"`
	Artwork          Artwork       `json:"artwork"`
	ContentRating    ContentRating `json:"contentRating,omitempty"`
	DiscNumber       int           `json:"discNumber,omitempty"`
	DurationInMillis int64         `json:"durationInMillis"`
	GenreNames       []string      `json:"genreNames,omitempty"`
	HasLyrics        bool          `json:"hasLyrics"`
	Name             string        `json:"name"`
	PlayParams       *PlayParams   `json:"playParams,omitempty"`
	ReleaseDate      string        `json:"releaseDate,omitempty"`
	TrackNumber      int           `json:"trackNumber,omitempty"`
}

type LibrarySong struct {
	ID         string                `json:"id"`
	Type       ObjectType            `json:"type"`
	Href       string                `json:"href"`
	Attributes LibrarySongAttributes `json:"attributes"`
}

func (s LibrarySong) Object() Object { return Object{ID: s.ID, Type: s.Type} }

// PlaylistAttributes describes a catalog playlist.
type PlaylistAttributes struct {
	Artwork          *Artwork     `json:"artwork,omitempty"`
	CuratorName      string       `json:"curatorName"`
	Description      *Description `json:"description,omitempty"`
	IsChart          bool         `json:"isChart"`
	LastModifiedDate *time.Time   `json:"lastModifiedDate,omitempty"`
	Name             string       `json:"name"`
	PlaylistType     string       `json:"playlistType"`
	PlayParams       *PlayParams  `json:"playParams,omitempty"`
	URL              string       `json:"url"`
	TrackTypes       []ObjectType `json:"trackTypes,omitempty"`
}

type Playlist struct {
	ID         string             `json:"id"`
	Type       ObjectType         `json:"type"`
	Href       string             `json:"href"`
	Attributes PlaylistAttributes `json:"attributes"`
}

// LibraryPlaylistAttributes describes a playlist in the user's library.
type LibraryPlaylistAttributes struct {
	Artwork          *Artwork     `json:"artwork,omitempty"`
	CanEdit          bool         `json:"canEdit"`
	DateAdded        *time.Time   `json:"dateAdded,omitempty"`
	LastModifiedDate *time.Time   `json:"lastModifiedDate,omitempty"`
	Description      *Description `json:"description,omitempty"`
	HasCatalog       bool         `json:"hasCatalog"`
	Name             string       `json:"name"`
	PlayParams       *PlayParams  `json:"playParams,omitempty"`
	IsPublic         bool         `json:"isPublic"`
	TrackTypes       []ObjectType `json:"trackTypes,omitempty"`
}

type LibraryPlaylist struct {
	ID         string                    `json:"id"`
	Type       ObjectType                `json:"type"`
	Href       string                    `json:"href"`
	Attributes LibraryPlaylistAttributes `json:"attributes"`
}

func (p LibraryPlaylist) Object() Object { return Object{ID: p.ID, Type: p.Type} }

// SearchResult is one typed bucket of a catalog search. Each bucket paginates independently.
type SearchResult[T any] struct {
	Next string `json:"next,omitempty"`
	Href string `json:"href"`
	Data []T    `json:"data"`
}

// SearchResults holds the buckets this client understands; other result types are ignored.
type SearchResults struct {
	Songs     *SearchResult[Song]     `json:"songs,omitempty"`
	Playlists *SearchResult[Playlist] `json:"playlists,omitempty"`
}

type SearchResultsMeta struct {
	Order    []string `json:"order"`
	RawOrder []string `json:"rawOrder"`
}

type SearchResponseMeta struct {
	Results SearchResultsMeta `json:"results"`
}

// SearchResponse is the body of a catalog search. It pages over its song bucket.
type SearchResponse struct {
	Results SearchResults       `json:"results"`
	Meta    *SearchResponseMeta `json:"meta,omitempty"`
	ErrorResponse
}

func (r *SearchResponse) successField() string { return "results" }

// Items returns the song hits, or nil when the search matched no songs.
func (r *SearchResponse) Items() []Song {
	if r.Results.Songs == nil {
		return nil
	}
	return r.Results.Songs.Data
}

// NextPage returns the path of the next page of song hits.
func (r *SearchResponse) NextPage() (string, bool) {
	if r.Results.Songs == nil || r.Results.Songs.Next == "" {
		return "", false
	}
	return r.Results.Songs.Next, true
}

// decode fills out from body, trying the success shape before the error envelope.
func decode(body []byte, out Envelope) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var successErr error
	if _, ok := probe[out.successField()]; ok {
		if successErr = json.Unmarshal(body, out); successErr == nil {
			return nil
		}
	}

	if raw, ok := probe["errors"]; ok {
		var entries []APIError
		if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 {
			*out.failure() = ErrorResponse{Errors: entries}
			return nil
		}
	}

	if successErr != nil {
		return fmt.Errorf("%w: %v", ErrDecode, successErr)
	}
	return fmt.Errorf("%w: missing %q and %q keys", ErrDecode, out.successField(), "errors")
}
