package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of an [ImportRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ImportRun is one journaled execution of the import command.
type ImportRun struct {
	id               string
	sequence         int
	exportPath       string
	storefront       string
	dryRun           bool
	appendMode       bool
	status           RunStatus
	playlistsTotal   int
	playlistsCreated int
	playlistsFailed  int
	errorMessage     string
	startedAt        time.Time
	completedAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewImportRun starts a run in the running state.
func NewImportRun(exportPath, storefront string, dryRun, appendMode bool) *ImportRun {
	now := time.Now()
	return &ImportRun{
		exportPath: exportPath,
		storefront: storefront,
		dryRun:     dryRun,
		appendMode: appendMode,
		status:     RunRunning,
		startedAt:  now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *ImportRun) ID() string { return r.id }
func (r *ImportRun) Sequence() int { return r.sequence }
func (r *ImportRun) ExportPath() string { return r.exportPath }
func (r *ImportRun) Storefront() string { return r.storefront }
func (r *ImportRun) DryRun() bool { return r.dryRun }
func (r *ImportRun) AppendMode() bool { return r.appendMode }
func (r *ImportRun) Status() RunStatus { return r.status }
func (r *ImportRun) PlaylistsTotal() int { return r.playlistsTotal }
func (r *ImportRun) PlaylistsCreated() int { return r.playlistsCreated }
func (r *ImportRun) PlaylistsFailed() int { return r.playlistsFailed }
func (r *ImportRun) ErrorMessage() string { return r.errorMessage }
func (r *ImportRun) StartedAt() time.Time { return r.startedAt }
func (r *ImportRun) CompletedAt() *time.Time { return r.completedAt }
func (r *ImportRun) CreatedAt() time.Time { return r.createdAt }
func (r *ImportRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *ImportRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *ImportRun) SetID(id string) { r.id = id }
func (r *ImportRun) SetSequence(seq int) { r.sequence = seq }
func (r *ImportRun) SetStatus(s RunStatus) { r.status = s }
func (r *ImportRun) SetErrorMessage(msg string) { r.errorMessage = msg }
func (r *ImportRun) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *ImportRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *ImportRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *ImportRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *ImportRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *ImportRun) SetCounts(total, created, failed int) {
	r.playlistsTotal, r.playlistsCreated, r.playlistsFailed = total, created, failed
}

// Complete tallies results and marks the run finished.
// A run is failed only when runErr is non-nil; per-playlist failures are counted.
func (r *ImportRun) Complete(results []PlaylistResult, runErr error) {
	r.playlistsTotal = len(results)
	r.playlistsCreated, r.playlistsFailed = 0, 0
	for _, res := range results {
		switch res.Status {
		case PlaylistCreated, PlaylistAppended:
			r.playlistsCreated++
		case PlaylistFailed:
			r.playlistsFailed++
		}
	}

	now := time.Now()
	r.completedAt = &now
	r.updatedAt = now
	r.status = RunCompleted
	if runErr != nil {
		r.status = RunFailed
		r.errorMessage = runErr.Error()
	}
}

// Duration is the wall time of a completed run, or zero while running.
func (r *ImportRun) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

func (r *ImportRun) Validate() error {
	if r.exportPath == "" {
		return fmt.Errorf("export path is required")
	}
	if r.storefront == "" {
		return fmt.Errorf("storefront is required")
	}
	switch r.status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid status: %q", r.status)
	}
	if r.playlistsCreated+r.playlistsFailed > r.playlistsTotal {
		return fmt.Errorf("playlist counts exceed total: %d + %d > %d", r.playlistsCreated, r.playlistsFailed, r.playlistsTotal)
	}
	return nil
}

var _ Model = (*ImportRun)(nil)
