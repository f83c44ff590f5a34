package task

import (
	"context"
	"errors"
	"time"

	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
)

var ErrNotFound = errors.New("task not found")

type Repository interface {
	Insert(ctx context.Context, t domaintask.Task) (domaintask.Task, error)
	GetByID(ctx context.Context, id int64) (domaintask.Task, error)
	List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error)

	// UpdateStatus moves the task to `to` only if its current status is one of `from`.
	// Terminal targets stamp completed_at with at. applied is false when the
	// precondition did not hold.
	UpdateStatus(ctx context.Context, id int64, from []domaintask.Status, to domaintask.Status, at time.Time) (applied bool, err error)

	// Reassign points the task at agentID, sets status to pending or active, stamps
	// last_reassigned_at and increments reassign_count in the same statement.
	// Terminal tasks are left untouched and reported through ErrNotFound.
	Reassign(ctx context.Context, id, agentID int64, status domaintask.Status, at time.Time) (domaintask.Task, error)

	// AssignPending activates a pending task on agentID. It is a no-op (applied=false)
	// if the task is no longer pending.
	AssignPending(ctx context.Context, id, agentID int64) (applied bool, err error)
}
