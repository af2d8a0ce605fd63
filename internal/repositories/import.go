package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/shared"
)

// ImportRepository implements models.Repository[*models.ImportRun] and stores per-playlist and per-track outcomes.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the given database connection
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

const runColumns = `
	id, sequence, export_path, storefront, dry_run, append_mode, status,
	playlists_total, playlists_created, playlists_failed, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at
`

// Create inserts a new run with generated ID and sequence
func (r *ImportRepository) Create(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "import_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	query := `INSERT INTO import_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.ExportPath(),
		run.Storefront(),
		run.DryRun(),
		run.AppendMode(),
		string(run.Status()),
		run.PlaylistsTotal(),
		run.PlaylistsCreated(),
		run.PlaylistsFailed(),
		nullable(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
		run.DeletedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *ImportRepository) Get(id string) (*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("%w (id %s)", err, id)
	}
	return run, nil
}

// Update persists status, counts and completion time
func (r *ImportRepository) Update(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE import_runs
		SET status = ?, playlists_total = ?, playlists_created = ?, playlists_failed = ?,
			error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.PlaylistsTotal(),
		run.PlaylistsCreated(),
		run.PlaylistsFailed(),
		nullable(run.ErrorMessage()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	return expectOneRow(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *ImportRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE import_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete import run: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves runs newest first.
//
// Supported criteria: "status" (string), "dry_run" (bool) and "limit" (int).
func (r *ImportRepository) List(criteria map[string]any) ([]*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if dry, ok := criteria["dry_run"].(bool); ok {
		query += " AND dry_run = ?"
		args = append(args, dry)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// SavePlaylistResult stores one playlist outcome and its track outcomes in a single transaction.
func (r *ImportRepository) SavePlaylistResult(runID string, position int, result models.PlaylistResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO playlist_results (run_id, position, name, status, playlist_id, url, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, position, result.Name, string(result.Status),
		nullable(result.PlaylistID), nullable(result.URL), nullable(result.Message), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist result: %w", err)
	}

	playlistResultID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get playlist result id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO track_results (
			playlist_result_id, position, kind, item, search_term, status,
			catalog_id, artist, name, url, score, message
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range result.Tracks {
		_, err := stmt.Exec(
			playlistResultID, t.Position, t.Kind.String(), t.Item, nullable(t.SearchTerm), string(t.Status),
			nullable(t.CatalogID), nullable(t.Artist), nullable(t.Name), nullable(t.URL), t.Score, nullable(t.Message),
		)
		if err != nil {
			return fmt.Errorf("failed to insert track result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist result: %w", err)
	}
	return nil
}

// PlaylistResults loads the outcomes recorded for a run in playlist order.
func (r *ImportRepository) PlaylistResults(runID string) ([]models.PlaylistResult, error) {
	rows, err := r.db.Query(`
		SELECT id, name, status, playlist_id, url, message
		FROM playlist_results
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist results: %w", err)
	}

	var (
		ids     []int64
		results []models.PlaylistResult
	)
	for rows.Next() {
		var (
			id                       int64
			res                      models.PlaylistResult
			status                   string
			playlistID, url, message sql.NullString
		)
		if err := rows.Scan(&id, &res.Name, &status, &playlistID, &url, &message); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist result: %w", err)
		}
		res.Status = models.PlaylistStatus(status)
		res.PlaylistID, res.URL, res.Message = playlistID.String, url.String, message.String
		ids = append(ids, id)
		results = append(results, res)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i, id := range ids {
		tracks, err := r.trackResults(id)
		if err != nil {
			return nil, err
		}
		results[i].Tracks = tracks
	}

	return results, nil
}

func (r *ImportRepository) trackResults(playlistResultID int64) ([]models.TrackResult, error) {
	rows, err := r.db.Query(`
		SELECT position, kind, item, search_term, status, catalog_id, artist, name, url, score, message
		FROM track_results
		WHERE playlist_result_id = ?
		ORDER BY position`, playlistResultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track results: %w", err)
	}
	defer rows.Close()

	tracks := []models.TrackResult{}
	for rows.Next() {
		var (
			t                                           models.TrackResult
			status                                      string
			term, catalogID, artist, name, url, message sql.NullString
		)
		err := rows.Scan(&t.Position, &t.KindName, &t.Item, &term, &status, &catalogID, &artist, &name, &url, &t.Score, &message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track result: %w", err)
		}
		t.Kind = kindFromName(t.KindName)
		t.Status = models.TrackStatus(status)
		t.SearchTerm, t.CatalogID, t.Artist = term.String, catalogID.String, artist.String
		t.Name, t.URL, t.Message = name.String, url.String, message.String
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// RunJournal records playlist outcomes for a single run.
type RunJournal struct {
	repo  *ImportRepository
	runID string
}

// Journal binds the repository to run for use by the import engine.
func (r *ImportRepository) Journal(run *models.ImportRun) *RunJournal {
	return &RunJournal{repo: r, runID: run.ID()}
}

// RecordPlaylist implements the import engine's journal hook.
func (j *RunJournal) RecordPlaylist(position int, result models.PlaylistResult) error {
	return j.repo.SavePlaylistResult(j.runID, position, result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row from either [sql.Row] or [sql.Rows] into a [models.ImportRun]
func scanRun(row rowScanner) (*models.ImportRun, error) {
	var (
		id                              string
		sequence                        int
		exportPath, storefront, status  string
		dryRun, appendMode              bool
		total, created, failed          int
		errorMessage                    sql.NullString
		startedAt, createdAt, updatedAt time.Time
		completedAt, deletedAt          sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &exportPath, &storefront, &dryRun, &appendMode, &status,
		&total, &created, &failed, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	run := models.NewImportRun(exportPath, storefront, dryRun, appendMode)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(total, created, failed)
	run.SetErrorMessage(errorMessage.String)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func kindFromName(name string) models.ItemKind {
	for _, k := range []models.ItemKind{models.TrackItem, models.EpisodeItem, models.LocalTrackItem} {
		if k.String() == name {
			return k
		}
	}
	return models.TrackItem
}

// nullable stores empty strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrRunNotFound, id)
	}
	return nil
}
