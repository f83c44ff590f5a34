//go:build integration

package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgagent "github.com/alanyang/shiftdesk/internal/adapter/postgres/agent"
	pgtask "github.com/alanyang/shiftdesk/internal/adapter/postgres/task"
	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	"github.com/alanyang/shiftdesk/internal/testutil"
)

var dayShift = domainagent.Schedule{WorkStart: "09:00", WorkEnd: "18:00", LunchStart: "13:00", LunchEnd: "14:00"}

func createAgent(t *testing.T, ctx context.Context, repo *pgagent.Repository, name string, role domainagent.Role, active bool, at time.Time) domainagent.Agent {
	t.Helper()
	a := domainagent.New(name, name+"@example.com", dayShift, role, active)
	a.CreatedAt = at
	created, err := repo.Create(ctx, a)
	require.NoError(t, err)
	return created
}

func TestAgentRepository_CreateAndGet(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)
	ctx := context.Background()

	created := createAgent(t, ctx, repo, "ana", domainagent.RoleAgente, true, time.Now().UTC())
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ana", created.Name)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, dayShift, got.Schedule)
	assert.Equal(t, domainagent.RoleAgente, got.Role)
	assert.True(t, got.Active)
	assert.False(t, got.Available, "availability is never loaded from storage")
}

func TestAgentRepository_GetByID_NotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)

	_, err := repo.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, portagent.ErrNotFound)
}

func TestAgentRepository_List(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	// Inserted out of creation order: List must sort by created_at.
	carla := createAgent(t, ctx, repo, "carla", domainagent.RoleAgente, true, base.Add(2*time.Minute))
	ana := createAgent(t, ctx, repo, "ana", domainagent.RoleAgente, true, base)
	desk := createAgent(t, ctx, repo, "desk", domainagent.RoleMesa, true, base.Add(time.Minute))
	off := createAgent(t, ctx, repo, "off", domainagent.RoleAgente, false, base.Add(3*time.Minute))

	agente := domainagent.RoleAgente
	active := true
	inactive := false

	tests := []struct {
		name    string
		filters domainagent.ListFilters
		want    []int64
	}{
		{"all in creation order", domainagent.ListFilters{}, []int64{ana.ID, desk.ID, carla.ID, off.ID}},
		{"by role", domainagent.ListFilters{Role: &agente}, []int64{ana.ID, carla.ID, off.ID}},
		{"active only", domainagent.ListFilters{Active: &active}, []int64{ana.ID, desk.ID, carla.ID}},
		{"inactive workers", domainagent.ListFilters{Role: &agente, Active: &inactive}, []int64{off.ID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.List(ctx, tc.filters)
			require.NoError(t, err)
			ids := make([]int64, len(got))
			for i, a := range got {
				ids[i] = a.ID
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestAgentRepository_Update(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)
	ctx := context.Background()

	a := createAgent(t, ctx, repo, "ana", domainagent.RoleAgente, true, time.Now().UTC())
	a.Name = "ana maria"
	a.Active = false
	a.Schedule.LunchStart = "12:00"
	a.Schedule.LunchEnd = "13:00"

	updated, err := repo.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "ana maria", updated.Name)
	assert.False(t, updated.Active)
	assert.Equal(t, "12:00", updated.Schedule.LunchStart)
	assert.Equal(t, a.CreatedAt.Unix(), updated.CreatedAt.Unix())

	a.ID = 9999
	_, err = repo.Update(ctx, a)
	assert.ErrorIs(t, err, portagent.ErrNotFound)
}

func TestAgentRepository_Delete(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)
	tasks := pgtask.New(pool)
	ctx := context.Background()

	a := createAgent(t, ctx, repo, "ana", domainagent.RoleAgente, true, time.Now().UTC())
	done, err := tasks.Insert(ctx, domaintask.New("archived", &a.ID, domaintask.StatusCompleted))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, portagent.ErrNotFound)

	got, err := tasks.GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo, "history survives with the assignment cleared")

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), portagent.ErrNotFound)
}

func TestAgentRepository_DeleteRefusesOpenTasks(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := pgagent.New(pool)
	tasks := pgtask.New(pool)
	ctx := context.Background()

	a := createAgent(t, ctx, repo, "ana", domainagent.RoleAgente, true, time.Now().UTC())
	active, err := tasks.Insert(ctx, domaintask.New("on it", &a.ID, domaintask.StatusActive))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), portagent.ErrHasOpenTasks)

	got, err := tasks.GetByID(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo, "the active task keeps its agent")
	assert.Equal(t, a.ID, *got.AssignedTo)

	_, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
}
