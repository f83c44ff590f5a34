package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"
)

var _ porttask.Repository = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, description, assigned_to, status, created_at, last_reassigned_at, reassign_count, completed_at`

func (r *Repository) Insert(ctx context.Context, t domaintask.Task) (domaintask.Task, error) {
	query := `
		INSERT INTO tasks (description, assigned_to, status, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + columns

	created, err := scanTask(r.pool.QueryRow(ctx, query, t.Description, t.AssignedTo, string(t.Status), t.CreatedAt))
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("inserting task: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domaintask.Task, error) {
	query := `SELECT ` + columns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaintask.Task{}, fmt.Errorf("task %d: %w", id, porttask.ErrNotFound)
		}
		return domaintask.Task{}, fmt.Errorf("querying task: %w", err)
	}
	return t, nil
}

func (r *Repository) List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	query := `SELECT ` + columns + ` FROM tasks WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*filters.Status))
		argIdx++
	}
	if filters.Open {
		query += " AND status IN ('pending', 'active')"
	}
	if filters.AssignedTo != nil {
		query += fmt.Sprintf(" AND assigned_to = $%d", argIdx)
		args = append(args, *filters.AssignedTo)
		argIdx++
	}
	if filters.Unassigned {
		query += " AND assigned_to IS NULL"
	}

	if filters.OldestFirst {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, from []domaintask.Status, to domaintask.Status, at time.Time) (bool, error) {
	var completedAt *time.Time
	if to.IsTerminal() {
		completedAt = &at
	}

	query := `
		UPDATE tasks SET status = $1, completed_at = COALESCE($2, completed_at)
		WHERE id = $3 AND status = ANY($4)`

	tag, err := r.pool.Exec(ctx, query, string(to), completedAt, id, statusStrings(from))
	if err != nil {
		return false, fmt.Errorf("updating task status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Reassign(ctx context.Context, id, agentID int64, status domaintask.Status, at time.Time) (domaintask.Task, error) {
	query := `
		UPDATE tasks SET
			assigned_to = $1, status = $2, last_reassigned_at = $3,
			reassign_count = reassign_count + 1
		WHERE id = $4 AND status IN ('pending', 'active')
		RETURNING ` + columns

	t, err := scanTask(r.pool.QueryRow(ctx, query, agentID, string(status), at, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaintask.Task{}, fmt.Errorf("open task %d: %w", id, porttask.ErrNotFound)
		}
		return domaintask.Task{}, fmt.Errorf("reassigning task: %w", err)
	}
	return t, nil
}

func (r *Repository) AssignPending(ctx context.Context, id, agentID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET assigned_to = $1, status = 'active'
		WHERE id = $2 AND status = 'pending'`, agentID, id)
	if err != nil {
		return false, fmt.Errorf("assigning pending task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanTask(row pgx.Row) (domaintask.Task, error) {
	var t domaintask.Task
	err := row.Scan(
		&t.ID, &t.Description, &t.AssignedTo, &t.Status,
		&t.CreatedAt, &t.LastReassignedAt, &t.ReassignCount, &t.CompletedAt,
	)
	return t, err
}

func scanTasks(rows pgx.Rows) ([]domaintask.Task, error) {
	var tasks []domaintask.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}
	return tasks, nil
}

func statusStrings(in []domaintask.Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
