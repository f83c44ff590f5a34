package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/shiftdesk/internal/adapter/memory"
	pgdb "github.com/alanyang/shiftdesk/internal/adapter/postgres"
	pgagent "github.com/alanyang/shiftdesk/internal/adapter/postgres/agent"
	pgeventbus "github.com/alanyang/shiftdesk/internal/adapter/postgres/eventbus"
	pgidem "github.com/alanyang/shiftdesk/internal/adapter/postgres/idempotency"
	pglocker "github.com/alanyang/shiftdesk/internal/adapter/postgres/locker"
	pgtask "github.com/alanyang/shiftdesk/internal/adapter/postgres/task"
	"github.com/alanyang/shiftdesk/internal/config"
	"github.com/alanyang/shiftdesk/internal/domain/pipeline"
	portagent "github.com/alanyang/shiftdesk/internal/port/agent"
	porteventbus "github.com/alanyang/shiftdesk/internal/port/eventbus"
	portidem "github.com/alanyang/shiftdesk/internal/port/idempotency"
	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
	porttask "github.com/alanyang/shiftdesk/internal/port/task"

	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	distsvc "github.com/alanyang/shiftdesk/internal/service/distributor"
	drainersvc "github.com/alanyang/shiftdesk/internal/service/drainer"
	"github.com/alanyang/shiftdesk/internal/service/snapshot"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"

	"github.com/alanyang/shiftdesk/internal/transport"
	mcptransport "github.com/alanyang/shiftdesk/internal/transport/mcp"
	wshandler "github.com/alanyang/shiftdesk/internal/transport/ws"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	// Pool is nil when running on the in-memory store.
	Pool       *pgxpool.Pool
	Server     *http.Server
	AgentSvc   *agentsvc.Service
	TaskSvc    *tasksvc.Service
	Drainer    *drainersvc.Service
	Reconciler *drainersvc.Reconciler
	Hub        *wshandler.Hub
	MCPServer  *mcptransport.Server

	bus  porteventbus.EventBus
	subs []porteventbus.Subscription
}

// backend is the set of adapters one storage choice provides.
type backend struct {
	pool   *pgxpool.Pool
	agents portagent.Repository
	tasks  porttask.Repository
	bus    porteventbus.EventBus
	locker portlocker.AdvisoryLocker
	idem   portidem.Store
}

func openBackend(ctx context.Context, env *config.Env) (backend, error) {
	switch env.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		return backend{
			agents: store.Agents(),
			tasks:  store.Tasks(),
			bus:    memory.NewEventBus(),
			locker: memory.NewLocker(),
			idem:   memory.NewIdempotencyCache(env.IdempotencyTTL),
		}, nil
	case config.StorePostgres:
		pool, err := pgdb.Connect(ctx, env.DatabaseURL)
		if err != nil {
			return backend{}, fmt.Errorf("connecting to database: %w", err)
		}
		return backend{
			pool:   pool,
			agents: pgagent.New(pool),
			tasks:  pgtask.New(pool),
			bus:    pgeventbus.New(pool),
			locker: pglocker.New(pool),
			idem:   pgidem.New(pool, env.IdempotencyTTL),
		}, nil
	}
	return backend{}, fmt.Errorf("unknown store %q", env.Store)
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies. Background work does not start until Start is called.
func Build(ctx context.Context, env *config.Env) (*App, error) {
	loc, err := env.Location()
	if err != nil {
		return nil, err
	}
	strategy, err := env.Strategy()
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, env)
	if err != nil {
		return nil, err
	}

	snapshots := snapshot.NewLoader(be.agents, be.tasks, loc)
	dist := distsvc.NewService(strategy)

	// The registry is created before the services so they can notify agents
	// through it; the MCP server is injected once it exists.
	reg := mcptransport.NewSessionRegistry()

	drainSvc := drainersvc.NewService(be.tasks, snapshots, be.bus, reg, pipeline.DefaultConfig, be.locker)
	reconciler := drainersvc.NewReconciler(drainSvc, be.bus, env.RefreshInterval)

	taskSvc := tasksvc.NewService(
		be.tasks,
		snapshots,
		dist,
		be.bus,
		reg, // implements port/notifier.AgentNotifier
		pipeline.DefaultConfig,
		be.locker,
		reconciler,
	)
	agentSvc := agentsvc.NewService(be.agents, be.tasks, be.bus, be.locker)

	mcpServer := mcptransport.New(reg, taskSvc, agentSvc)
	hub := wshandler.NewHub()

	router := transport.NewRouter(taskSvc, agentSvc, drainSvc, be.idem, hub, mcpServer.Handler())
	server := &http.Server{
		Addr:              env.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.InfoContext(ctx, "application wired",
		"addr", server.Addr,
		"store", env.Store,
		"strategy", strategy,
		"timezone", loc.String(),
	)

	return &App{
		Pool:       be.pool,
		Server:     server,
		AgentSvc:   agentSvc,
		TaskSvc:    taskSvc,
		Drainer:    drainSvc,
		Reconciler: reconciler,
		Hub:        hub,
		MCPServer:  mcpServer,
		bus:        be.bus,
	}, nil
}
