package services

import (
	"context"
	"fmt"
	"net/url"
)

const (
	librarySongsPath     = "/v1/me/library/songs"
	libraryPlaylistsPath = "/v1/me/library/playlists"
)

func playlistTracksPath(playlistID string) string {
	return fmt.Sprintf("%s/%s/tracks", libraryPlaylistsPath, url.PathEscape(playlistID))
}

func catalogSearchPath(storefront string) string {
	return fmt.Sprintf("/v1/catalog/%s/search", url.PathEscape(storefront))
}

// LibraryPlaylistURL is the web player link for a library playlist.
func LibraryPlaylistURL(storefront, playlistID string) string {
	return fmt.Sprintf("%s/%s/library/playlist/%s", WebOrigin, storefront, playlistID)
}

// LibrarySongs returns the first page of the user's library songs.
func (c *Client) LibrarySongs(ctx context.Context) (*ListResponse[LibrarySong], error) {
	var res ListResponse[LibrarySong]
	if err := c.Get(ctx, librarySongsPath, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AllLibrarySongs walks every page of the user's library songs.
func (c *Client) AllLibrarySongs(ctx context.Context) ([]LibrarySong, error) {
	first, err := c.LibrarySongs(ctx)
	if err != nil {
		return nil, err
	}
	return FetchAll[LibrarySong](ctx, c, first)
}

// LibraryPlaylists returns the first page of the user's library playlists.
func (c *Client) LibraryPlaylists(ctx context.Context) (*ListResponse[LibraryPlaylist], error) {
	var res ListResponse[LibraryPlaylist]
	if err := c.Get(ctx, libraryPlaylistsPath, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AllLibraryPlaylists walks every page of the user's library playlists.
func (c *Client) AllLibraryPlaylists(ctx context.Context) ([]LibraryPlaylist, error) {
	first, err := c.LibraryPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	return FetchAll[LibraryPlaylist](ctx, c, first)
}

// CreateLibraryPlaylist creates a playlist. An API failure is returned in the response's error envelope.
func (c *Client) CreateLibraryPlaylist(ctx context.Context, req LibraryPlaylistCreationRequest) (*ListResponse[LibraryPlaylist], error) {
	var res ListResponse[LibraryPlaylist]
	if err := c.Post(ctx, libraryPlaylistsPath, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LibraryPlaylistTracks returns the first page of a library playlist's tracks.
func (c *Client) LibraryPlaylistTracks(ctx context.Context, playlistID string) (*ListResponse[LibrarySong], error) {
	var res ListResponse[LibrarySong]
	if err := c.Get(ctx, playlistTracksPath(playlistID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AllLibraryPlaylistTracks walks every page of a library playlist's tracks.
func (c *Client) AllLibraryPlaylistTracks(ctx context.Context, playlistID string) ([]LibrarySong, error) {
	first, err := c.LibraryPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return FetchAll[LibrarySong](ctx, c, first)
}

// AddLibraryPlaylistTracks appends tracks to an existing library playlist.
func (c *Client) AddLibraryPlaylistTracks(ctx context.Context, playlistID string, tracks Objects) (ErrorResponse, error) {
	return c.PostNoContent(ctx, playlistTracksPath(playlistID), tracks)
}

// SearchCatalog runs a catalog search in the given storefront.
func (c *Client) SearchCatalog(ctx context.Context, storefront string, q SearchQuery) (*SearchResponse, error) {
	var res SearchResponse
	if err := c.Get(ctx, catalogSearchPath(storefront), q.Values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchSongs returns the first page of song hits for q.
//
// An error envelope is returned as data in the response; use [ErrorResponse.Err] to inspect it.
func (c *Client) SearchSongs(ctx context.Context, storefront string, q SearchQuery) (*SearchResponse, error) {
	q.Types = Songs
	return c.SearchCatalog(ctx, storefront, q)
}

// AllSearchSongs follows the song bucket's next links until the catalog stops returning them.
func (c *Client) AllSearchSongs(ctx context.Context, storefront string, q SearchQuery) ([]Song, error) {
	first, err := c.SearchSongs(ctx, storefront, q)
	if err != nil {
		return nil, err
	}
	return FetchAll[Song](ctx, c, first)
}
