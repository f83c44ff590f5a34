package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
)

var _ portagent.Repository = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, name, email, work_start, work_end, lunch_start, lunch_end, active, role, created_at`

func (r *Repository) Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	query := `
		INSERT INTO agents (name, email, work_start, work_end, lunch_start, lunch_end, active, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING ` + columns

	created, err := scanAgent(r.pool.QueryRow(ctx, query,
		a.Name, a.Email,
		a.Schedule.WorkStart, a.Schedule.WorkEnd, a.Schedule.LunchStart, a.Schedule.LunchEnd,
		a.Active, a.Role.String(), a.CreatedAt,
	))
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("inserting agent: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domainagent.Agent, error) {
	query := `SELECT ` + columns + ` FROM agents WHERE id = $1`

	a, err := scanAgent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainagent.Agent{}, fmt.Errorf("agent %d: %w", id, portagent.ErrNotFound)
		}
		return domainagent.Agent{}, fmt.Errorf("querying agent: %w", err)
	}
	return a, nil
}

func (r *Repository) List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	query := `SELECT ` + columns + ` FROM agents WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.Role != nil {
		query += fmt.Sprintf(" AND role = $%d", argIdx)
		args = append(args, filters.Role.String())
		argIdx++
	}
	if filters.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argIdx)
		args = append(args, *filters.Active)
		argIdx++
	}

	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var agents []domainagent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent row: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agent rows: %w", err)
	}
	return agents, nil
}

func (r *Repository) Update(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	query := `
		UPDATE agents SET
			name = $2, email = $3, work_start = $4, work_end = $5,
			lunch_start = $6, lunch_end = $7, active = $8, role = $9
		WHERE id = $1
		RETURNING ` + columns

	updated, err := scanAgent(r.pool.QueryRow(ctx, query,
		a.ID, a.Name, a.Email,
		a.Schedule.WorkStart, a.Schedule.WorkEnd, a.Schedule.LunchStart, a.Schedule.LunchEnd,
		a.Active, a.Role.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainagent.Agent{}, fmt.Errorf("agent %d: %w", a.ID, portagent.ErrNotFound)
		}
		return domainagent.Agent{}, fmt.Errorf("updating agent: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM agents WHERE id = $1
		AND NOT EXISTS (
			SELECT 1 FROM tasks WHERE assigned_to = $1 AND status IN ('pending', 'active')
		)`, id)
	if err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM agents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking agent: %w", err)
	}
	if exists {
		return fmt.Errorf("agent %d: %w", id, portagent.ErrHasOpenTasks)
	}
	return fmt.Errorf("agent %d: %w", id, portagent.ErrNotFound)
}

func scanAgent(row pgx.Row) (domainagent.Agent, error) {
	var a domainagent.Agent
	var role string
	if err := row.Scan(
		&a.ID, &a.Name, &a.Email,
		&a.Schedule.WorkStart, &a.Schedule.WorkEnd, &a.Schedule.LunchStart, &a.Schedule.LunchEnd,
		&a.Active, &role, &a.CreatedAt,
	); err != nil {
		return domainagent.Agent{}, err
	}
	parsed, err := domainagent.ParseRole(role)
	if err != nil {
		return domainagent.Agent{}, err
	}
	a.Role = parsed
	return a, nil
}
