package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/spta/internal/formatter"
	"github.com/desertthunder/spta/internal/matching"
	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/desertthunder/spta/internal/tasks"
	"github.com/desertthunder/spta/internal/ui"
	"github.com/urfave/cli/v3"
)

// Import loads a Spotify data export, lets the user pick playlists and imports them into the Apple Music library.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	exportPath := cmd.StringArg("playlist-file")
	if exportPath == "" {
		return fmt.Errorf("%w: playlist file", shared.ErrMissingArgument)
	}

	names := cmd.StringSlice("playlists")
	minScore := cmd.Float("min-score")
	if minScore < 0 || minScore >= matching.MaxScore {
		return fmt.Errorf("%w: --min-score must be in [0, %g)", shared.ErrInvalidFlag, matching.MaxScore)
	}
	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}
	locale, err := parseLocale(cmd.String("locale"))
	if err != nil {
		return err
	}
	reportPath := cmd.String("report")
	if reportPath != "" {
		if _, err := formatter.ReportFormat(reportPath); err != nil {
			return err
		}
	}

	client, config, err := r.client()
	if err != nil {
		return err
	}

	export, err := models.LoadExport(exportPath)
	if err != nil {
		return err
	}
	r.writePlain("%s Loaded %s from Spotify data export\n", ui.Status("✔"), pluralize(len(export.Playlists), "playlist"))

	selected, err := r.selectPlaylists(ctx, export, names)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		r.writePlain("%s No playlists selected\n", ui.Status("✘"))
		return nil
	}
	r.logger.Info("importing playlists", "count", len(selected), "dry", cmd.Bool("dry"), "append", cmd.Bool("append"))

	opts := tasks.ImportOptions{
		Storefront: config.AppleMusicStorefront,
		Locale:     locale,
		Dry:        cmd.Bool("dry"),
		Append:     cmd.Bool("append"),
		MinScore:   minScore,
		Limit:      limit,
	}
	engine := tasks.NewImportEngine(client, opts, r.logger)

	repo, db, err := r.openJournal(cmd)
	if err != nil {
		r.logger.Warn("import journal unavailable", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	var run *models.ImportRun
	if repo != nil {
		run = models.NewImportRun(exportPath, opts.Storefront, opts.Dry, opts.Append)
		if err := repo.Create(run); err != nil {
			r.logger.Warn("failed to record import run", "error", err)
			run = nil
		} else {
			engine.WithJournal(repo.Journal(run))
		}
	}

	results, runErr := r.runImport(ctx, engine, selected)

	if run != nil {
		run.Complete(results, runErr)
		if err := repo.Update(run); err != nil {
			r.logger.Warn("failed to finish import run", "run", run.ID(), "error", err)
		}
	}

	if len(results) > 0 {
		r.writePlain("\n")
		if err := formatter.RenderSummary(r.output, results); err != nil {
			return err
		}
	}

	if reportPath != "" && (runErr == nil || len(results) > 0) {
		format, err := formatter.WriteReport(reportPath, results)
		if err != nil {
			return err
		}
		r.writePlain("Wrote %s report to %s\n", format, reportPath)
	}

	return runErr
}

// selectPlaylists asks the user which playlists to import, or filters by name when nobody is at the terminal.
func (r *Runner) selectPlaylists(ctx context.Context, export *models.Export, names []string) ([]models.SourcePlaylist, error) {
	if !r.attended() {
		for _, name := range names {
			if !slices.Contains(export.Names(), name) {
				r.logger.Warn("skipping playlist name", "name", name, "error", shared.ErrPlaylistNotFound)
			}
		}
		return export.Select(names), nil
	}

	selected, err := ui.Select(ctx, r.input, r.output, ui.DefaultPrompt, export.Playlists, names)
	if err != nil {
		if errors.Is(err, ui.ErrSelectionAborted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to select playlists: %w", err)
	}
	return selected, nil
}

// runImport runs the engine while printing its progress updates.
func (r *Runner) runImport(ctx context.Context, engine *tasks.ImportEngine, playlists []models.SourcePlaylist) ([]models.PlaylistResult, error) {
	progress := make(chan tasks.ProgressUpdate, 256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", formatUpdate(update))
		}
	}()

	results, err := engine.Run(ctx, playlists, progress)
	close(progress)
	wg.Wait()

	return results, err
}

// formatUpdate renders a progress line with a colored status glyph.
func formatUpdate(u tasks.ProgressUpdate) string {
	line := ui.Status(u.Status.Glyph()) + " " + u.Message
	if u.Nested {
		return "\t" + line
	}
	return line
}

func pluralize(n int, word string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%d %s", n, word)
}
