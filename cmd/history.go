package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/spta/internal/formatter"
	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded import runs, or one run's playlist outcomes with --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openJournal(cmd)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("%w: set databasePath in %s or pass --db", shared.ErrMissingConfig, r.configPath)
	}
	defer db.Close()

	if id := cmd.String("run"); id != "" {
		run, err := repo.Get(id)
		if err != nil {
			return err
		}
		results, err := repo.PlaylistResults(id)
		if err != nil {
			return err
		}

		r.writePlain("Run #%d %s: %s (%s)\n", run.Sequence(), run.ID(), run.Status(), run.ExportPath())
		if msg := run.ErrorMessage(); msg != "" {
			r.writePlain("Error: %s\n", msg)
		}
		if len(results) == 0 {
			r.writePlain("No playlists recorded\n")
			return nil
		}
		return formatter.RenderSummary(r.output, results)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := cmd.String("status"); status != "" {
		switch models.RunStatus(status) {
		case models.RunRunning, models.RunCompleted, models.RunFailed:
			criteria["status"] = status
		default:
			return fmt.Errorf("%w: status %q", shared.ErrInvalidFlag, status)
		}
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.writePlain("No import runs recorded\n")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence()),
			run.ID(),
			run.StartedAt().Local().Format(time.DateTime),
			run.ExportPath(),
			run.Storefront(),
			runMode(run),
			string(run.Status()),
			fmt.Sprintf("%d/%d", run.PlaylistsCreated(), run.PlaylistsTotal()),
			strconv.Itoa(run.PlaylistsFailed()),
			run.Duration().Round(time.Second).String(),
		})
	}
	headers := []string{"#", "ID", "Started", "Export", "Storefront", "Mode", "Status", "Imported", "Failed", "Duration"}
	aligns := []formatter.Alignment{formatter.AlignRight, 0, 0, 0, 0, 0, 0, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight}
	r.writePlain("%s\n", formatter.RenderTable(headers, rows, aligns))
	return nil
}

func runMode(run *models.ImportRun) string {
	switch {
	case run.DryRun():
		return "dry"
	case run.AppendMode():
		return "append"
	default:
		return "create"
	}
}
