// package tasks imports playlists from a streaming data export into the Apple Music library.
//
// The core abstraction is ImportEngine, which reconciles each exported track against the catalog and creates playlists.
// Operations emit progress updates on a caller-drained channel; a send gives up only when the context is done.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spta/internal/matching"
	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/services"
	"github.com/desertthunder/spta/internal/shared"
)

// DefaultSearchLimit is the number of catalog candidates requested per track.
const DefaultSearchLimit = 25

// ImportOptions tune a run. [NewImportEngine] fills an empty Storefront and a non-positive Limit;
// MinScore is never defaulted, so zero accepts any candidate with a positive score.
type ImportOptions struct {
	Storefront string  // catalog storefront and playlist URL prefix
	Locale     string  // optional "l" search parameter
	Dry        bool    // reconcile only; never write to the library
	Append     bool    // add matches to a same-named playlist instead of skipping it
	MinScore   float64 // exclusive threshold for the compound score, used as given
	Limit      int     // candidates per search
}

// Journal receives each playlist outcome as soon as it is known.
type Journal interface {
	RecordPlaylist(position int, result models.PlaylistResult) error
}

// ImportEngine drives reconciliation and playlist creation against a [services.Catalog].
type ImportEngine struct {
	catalog services.Catalog
	opts    ImportOptions
	journal Journal
	logger  *log.Logger
}

// NewImportEngine creates an engine, filling unset options with their defaults.
func NewImportEngine(catalog services.Catalog, opts ImportOptions, logger *log.Logger) *ImportEngine {
	if opts.Storefront == "" {
		opts.Storefront = shared.DefaultStorefront
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportEngine{catalog: catalog, opts: opts, logger: shared.WithLogger(logger, "component", "import")}
}

// WithJournal attaches a journal; journal failures are logged and never abort the run.
func (e *ImportEngine) WithJournal(j Journal) *ImportEngine {
	e.journal = j
	return e
}

// Options returns the effective options.
func (e *ImportEngine) Options() ImportOptions { return e.opts }

// sendProgress delivers update unless ctx is done first. Callers that pass a channel must drain it.
func (e *ImportEngine) sendProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

// Run imports playlists in order and returns one result per playlist.
//
// Loading the user's library playlists happens first; failing that aborts the run before any playlist is touched.
// Afterwards only context cancellation aborts, returning the results gathered so far.
func (e *ImportEngine) Run(ctx context.Context, playlists []models.SourcePlaylist, progress chan<- ProgressUpdate) ([]models.PlaylistResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrAPIRequest)
	}

	e.sendProgress(ctx, progress, loadingLibraryUpdate())

	existing, err := e.catalog.AllLibraryPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load library playlists: %w", shared.ErrAPIRequest, err)
	}
	for _, p := range existing {
		e.logger.Debug("library playlist", "name", p.Attributes.Name, "id", p.ID)
	}
	e.sendProgress(ctx, progress, loadedLibraryUpdate(existing))

	byName := make(map[string]services.LibraryPlaylist, len(existing))
	for _, p := range existing {
		if _, ok := byName[p.Attributes.Name]; !ok {
			byName[p.Attributes.Name] = p
		}
	}

	results := make([]models.PlaylistResult, 0, len(playlists))
	for i, pl := range playlists {
		target, exists := byName[pl.Name]

		result, err := e.importPlaylist(ctx, i+1, len(playlists), pl, target, exists, progress)
		// A playlist that reached an outcome is kept even when the run stops right after it.
		if result.Status != "" {
			if e.journal != nil {
				if jerr := e.journal.RecordPlaylist(i, result); jerr != nil {
					e.logger.Warn("failed to journal playlist result", "playlist", pl.Name, "error", jerr)
				}
			}
			results = append(results, result)
		}
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// importPlaylist handles one playlist. The error is non-nil only when the run must stop.
func (e *ImportEngine) importPlaylist(
	ctx context.Context,
	step, total int,
	pl models.SourcePlaylist,
	target services.LibraryPlaylist,
	exists bool,
	progress chan<- ProgressUpdate,
) (models.PlaylistResult, error) {
	result := models.PlaylistResult{Name: pl.Name, Tracks: make([]models.TrackResult, 0, len(pl.Items))}

	if exists && !e.opts.Dry && !e.opts.Append {
		result.Status = models.PlaylistAlreadyExists
		result.PlaylistID = target.ID
		result.URL = services.LibraryPlaylistURL(e.opts.Storefront, target.ID)
		e.sendProgress(ctx, progress, alreadyExistsUpdate(step, total, pl.Name))
		return result, nil
	}

	e.sendProgress(ctx, progress, processingPlaylistUpdate(step, total, pl))

	objects := make([]services.Object, 0, len(pl.Items))
	for i, item := range pl.Items {
		track, obj, err := e.reconcile(ctx, i, len(pl.Items), item, progress)
		if err != nil {
			return result, err
		}
		result.Tracks = append(result.Tracks, track)
		if obj != nil {
			objects = append(objects, *obj)
		}
	}

	switch {
	case e.opts.Dry:
		result.Status = models.PlaylistSkippedDry
		e.sendProgress(ctx, progress, dryRunUpdate(step, total, pl.Name))
	case exists:
		e.appendTracks(ctx, &result, target, objects)
		if result.Status == models.PlaylistAppended {
			e.sendProgress(ctx, progress, appendedPlaylistUpdate(step, total, result, len(objects)))
		} else {
			e.sendProgress(ctx, progress, failedPlaylistUpdate(step, total, result))
		}
	default:
		e.createPlaylist(ctx, &result, pl, objects)
		if result.Status == models.PlaylistCreated {
			e.sendProgress(ctx, progress, createdPlaylistUpdate(step, total, result))
		} else {
			e.sendProgress(ctx, progress, failedPlaylistUpdate(step, total, result))
		}
	}

	return result, ctx.Err()
}

// reconcile searches the catalog for one item and selects the best candidate.
// The object is nil when nothing was matched.
func (e *ImportEngine) reconcile(
	ctx context.Context,
	position, total int,
	item models.PlaylistItem,
	progress chan<- ProgressUpdate,
) (models.TrackResult, *services.Object, error) {
	result := models.TrackResult{Position: position, Kind: item.Kind, KindName: item.Kind.String(), Item: item.String()}
	step := position + 1

	if item.Kind != models.TrackItem {
		result.Status = models.TrackSkipped
		result.Message = "Not a track"
		e.sendProgress(ctx, progress, notATrackUpdate(step, total, item))
		return result, nil, nil
	}

	track := item.Track
	term := track.SearchTerm()
	result.SearchTerm = term
	e.sendProgress(ctx, progress, searchingTrackUpdate(step, total, term))

	q := services.SearchQuery{Term: term, Locale: e.opts.Locale, Limit: e.opts.Limit}
	res, err := e.catalog.SearchSongs(ctx, e.opts.Storefront, q)
	if err == nil && res.Err() != nil {
		err = res.Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, nil, ctxErr
		}
		if errors.Is(err, services.ErrBootstrap) {
			return result, nil, err
		}
		e.logger.Warn("catalog search failed", "term", term, "error", err)
		result.Status = models.TrackSearchFail
		result.Message = err.Error()
		e.sendProgress(ctx, progress, searchFailedUpdate(step, total, term, err))
		return result, nil, nil
	}

	source := matching.Fields{Artist: track.ArtistName, Album: track.AlbumName, Track: track.TrackName}
	song, score, ok := matching.SelectSong(source, res.Items(), e.opts.MinScore)
	if !ok {
		result.Status = models.TrackNotFound
		e.sendProgress(ctx, progress, notFoundTrackUpdate(step, total, term))
		return result, nil, nil
	}

	result.Status = models.TrackFound
	result.CatalogID = song.ID
	result.Artist = song.Attributes.ArtistName
	result.Name = song.Attributes.Name
	result.URL = song.Attributes.URL
	result.Score = score
	e.sendProgress(ctx, progress, foundTrackUpdate(step, total, song, score))

	obj := song.Object()
	return result, &obj, nil
}

func (e *ImportEngine) createPlaylist(ctx context.Context, result *models.PlaylistResult, pl models.SourcePlaylist, objects []services.Object) {
	req := services.NewPlaylistCreationRequest(pl.Name, pl.Description, objects)

	res, err := e.catalog.CreateLibraryPlaylist(ctx, req)
	if err == nil && res.Err() != nil {
		err = res.Err()
	}
	if err != nil {
		result.Status = models.PlaylistFailed
		result.Message = err.Error()
		return
	}

	result.Status = models.PlaylistCreated
	if len(res.Data) > 0 {
		result.PlaylistID = res.Data[0].ID
		result.URL = services.LibraryPlaylistURL(e.opts.Storefront, result.PlaylistID)
	}
}

func (e *ImportEngine) appendTracks(ctx context.Context, result *models.PlaylistResult, target services.LibraryPlaylist, objects []services.Object) {
	result.PlaylistID = target.ID
	result.URL = services.LibraryPlaylistURL(e.opts.Storefront, target.ID)

	if len(objects) == 0 {
		result.Status = models.PlaylistAppended
		result.Message = "no matched tracks to add"
		return
	}

	envelope, err := e.catalog.AddLibraryPlaylistTracks(ctx, target.ID, services.Objects{Data: objects})
	if err == nil && envelope.Err() != nil {
		err = envelope.Err()
	}
	if err != nil {
		result.Status = models.PlaylistFailed
		result.Message = err.Error()
		return
	}
	result.Status = models.PlaylistAppended
}
