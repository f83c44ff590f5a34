package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portidem "github.com/alanyang/shiftdesk/internal/port/idempotency"
	agentsvc "github.com/alanyang/shiftdesk/internal/service/agent"
	drainersvc "github.com/alanyang/shiftdesk/internal/service/drainer"
	tasksvc "github.com/alanyang/shiftdesk/internal/service/task"

	agenthandler "github.com/alanyang/shiftdesk/internal/transport/agent"
	taskhandler "github.com/alanyang/shiftdesk/internal/transport/task"
	wshandler "github.com/alanyang/shiftdesk/internal/transport/ws"
)

// NewRouter mounts the REST API, the websocket hub and an optional MCP handler.
// The hub must already be bridged to the event bus.
func NewRouter(
	taskSvc *tasksvc.Service,
	agentSvc *agentsvc.Service,
	drainSvc *drainersvc.Service,
	idem portidem.Store,
	hub *wshandler.Hub,
	mcpHandler http.Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())
	r.Use(IdempotencyMiddleware(idem))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	taskhandler.Register(api.Group("/tasks"), taskSvc, drainSvc)
	agenthandler.Register(api.Group("/agents"), agentSvc)
	hub.Register(api.Group("/ws"))

	if mcpHandler != nil {
		r.Any("/mcp", gin.WrapH(mcpHandler))
	}
	return r
}
