// package services defines interface Catalog for the Apple Music library and catalog API
package services

import "context"

// Catalog defines the library and catalog operations an import needs from Apple Music.
type Catalog interface {
	// AllLibraryPlaylists retrieves every playlist in the user's library, following pagination.
	AllLibraryPlaylists(ctx context.Context) ([]LibraryPlaylist, error)

	// SearchSongs searches the storefront's catalog for songs.
	// An API failure is returned in the response's error envelope.
	SearchSongs(ctx context.Context, storefront string, q SearchQuery) (*SearchResponse, error)

	// CreateLibraryPlaylist creates a library playlist.
	CreateLibraryPlaylist(ctx context.Context, req LibraryPlaylistCreationRequest) (*ListResponse[LibraryPlaylist], error)

	// AddLibraryPlaylistTracks appends tracks to an existing library playlist.
	AddLibraryPlaylistTracks(ctx context.Context, playlistID string, tracks Objects) (ErrorResponse, error)
}

var _ Catalog = (*Client)(nil)
