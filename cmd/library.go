package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spta/internal/formatter"
	"github.com/desertthunder/spta/internal/services"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryPlaylistListing is a library playlist with its tracks when requested.
type LibraryPlaylistListing struct {
	services.LibraryPlaylist
	Tracks []services.LibrarySong `json:"tracks,omitempty"`
}

// LibraryPlaylists lists every playlist in the user's library.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	client, _, err := r.client()
	if err != nil {
		return err
	}

	playlists, err := client.AllLibraryPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	withTracks := cmd.Bool("tracks")
	listings := make([]LibraryPlaylistListing, len(playlists))
	for i, p := range playlists {
		listings[i].LibraryPlaylist = p
		if !withTracks {
			continue
		}

		tracks, err := client.AllLibraryPlaylistTracks(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("%w: tracks of playlist %s: %w", shared.ErrAPIRequest, p.ID, err)
		}
		r.logger.Debug("fetched playlist tracks", "playlist", p.Attributes.Name, "count", len(tracks))
		listings[i].Tracks = tracks
	}

	if cmd.Bool("json") {
		return r.writeJSON(listings, true)
	}

	headers := []string{"ID", "Name", "Editable"}
	if withTracks {
		headers = append(headers, "Tracks")
	}
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		row := []string{l.ID, l.Attributes.Name, strconv.FormatBool(l.Attributes.CanEdit)}
		if withTracks {
			row = append(row, strconv.Itoa(len(l.Tracks)))
		}
		rows = append(rows, row)
	}

	r.writePlain("%s\n", formatter.RenderTable(headers, rows, []formatter.Alignment{formatter.AlignLeft, formatter.AlignLeft, formatter.AlignLeft, formatter.AlignRight}))
	r.writePlain("%s in library\n", pluralize(len(listings), "playlist"))
	return nil
}

// LibrarySongs lists every song in the user's library.
func (r *Runner) LibrarySongs(ctx context.Context, cmd *cli.Command) error {
	client, _, err := r.client()
	if err != nil {
		return err
	}

	songs, err := client.AllLibrarySongs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, true)
	}

	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		rows = append(rows, []string{s.ID, s.Attributes.ArtistName, s.Attributes.AlbumName, s.Attributes.Name})
	}
	r.writePlain("%s\n", formatter.RenderTable([]string{"ID", "Artist", "Album", "Name"}, rows, nil))
	r.writePlain("%s in library\n", pluralize(len(songs), "song"))
	return nil
}
