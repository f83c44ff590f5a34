package wire_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/shiftdesk/internal/config"
	domaintask "github.com/alanyang/shiftdesk/internal/domain/task"
	"github.com/alanyang/shiftdesk/internal/transport"
	"github.com/alanyang/shiftdesk/internal/wire"
)

func memoryEnv() *config.Env {
	return &config.Env{
		BaseEnv:  config.BaseEnv{HTTPPort: "0", LogLevel: "info"},
		StoreEnv: config.StoreEnv{Store: config.StoreMemory},
		DispatchEnv: config.DispatchEnv{
			Timezone:          "UTC",
			SelectionStrategy: "rotation",
			RefreshInterval:   time.Hour,
			IdempotencyTTL:    time.Hour,
		},
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBuild_MemoryStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := wire.Build(ctx, memoryEnv())
	require.NoError(t, err)
	assert.Nil(t, app.Pool)
	require.NoError(t, app.Start(ctx))
	defer app.Close()

	h := app.Server.Handler

	w := do(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A desk supervisor never receives work, so the task lands in the pool.
	w = do(t, h, http.MethodPost, "/api/agents/", map[string]any{
		"name": "desk",
		"role": "Mesa",
		"schedule": map[string]string{
			"work_start": "00:00", "work_end": "23:59", "lunch_start": "12:00", "lunch_end": "12:30",
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := map[string]any{"description": "printer on fire", "mode": "auto", "type": "availability"}
	key := map[string]string{transport.HeaderIdempotencyKey: "create-1"}

	first := do(t, h, http.MethodPost, "/api/tasks/", body, key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	var created domaintask.Task
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	assert.Equal(t, domaintask.StatusPending, created.Status)
	assert.Nil(t, created.AssignedTo)

	replay := do(t, h, http.MethodPost, "/api/tasks/", body, key)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(transport.HeaderReplayed))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	w = do(t, h, http.MethodGet, "/api/tasks/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []domaintask.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1, "the replayed request must not create a second task")
}

func TestBuild_RejectsBadDispatchConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Env)
	}{
		{"timezone", func(e *config.Env) { e.Timezone = "Mars/Olympus" }},
		{"strategy", func(e *config.Env) { e.SelectionStrategy = "random" }},
		{"store", func(e *config.Env) { e.Store = "sqlite" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := memoryEnv()
			tc.mutate(env)
			_, err := wire.Build(context.Background(), env)
			assert.Error(t, err)
		})
	}
}
