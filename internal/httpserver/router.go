package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"sitemaster/internal/handler"
	"sitemaster/pkg/rbac"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus reports whether the outbox can currently publish.
type BrokerStatus interface {
	IsConnected() bool
}

type Deps struct {
	Projects    *handler.ProjectHandler
	Schedule    *handler.ScheduleHandler
	JWTSecret   string
	DB          Pinger
	Broker      BrokerStatus
	ServiceName string
	// ImportPerMinute and ImportBurst size the per-user CSV import budget.
	ImportPerMinute float64
	ImportBurst     int
	Logger          *zap.Logger
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(d Deps) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(TraceMiddleware(), RequestLogger(d.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if d.Broker != nil && !d.Broker.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(d.JWTSecret))
	{
		read := RequirePermission(rbac.PermissionRead)
		writeProject := RequirePermission(rbac.PermissionWriteProject)
		writeTask := RequirePermission(rbac.PermissionWriteTask)
		writeDoc := RequirePermission(rbac.PermissionWriteDocument)
		importTasks := RequirePermission(rbac.PermissionImportTasks)

		api.GET("/projects", read, d.Projects.ListProjects)
		api.POST("/projects", writeProject, d.Projects.CreateProject)
		api.GET("/projects/:id", read, d.Projects.GetProject)
		api.PATCH("/projects/:id", writeProject, d.Projects.UpdateProject)
		api.DELETE("/projects/:id", writeProject, d.Projects.DeleteProject)

		api.POST("/projects/:id/tasks", writeTask, d.Projects.AddTask)
		// task:status 或 task:write 在 handler 里按 patch 内容判断
		api.PATCH("/projects/:id/tasks/:taskId", read, d.Projects.UpdateTask)
		api.DELETE("/projects/:id/tasks/:taskId", writeTask, d.Projects.DeleteTask)
		api.GET("/projects/:id/tasks/:taskId/history", read, d.Projects.TaskHistory)
		api.POST("/projects/:id/tasks/import",
			importTasks,
			RateLimit(d.ImportPerMinute, d.ImportBurst),
			d.Projects.ImportTasks,
		)

		api.POST("/projects/:id/documents", writeDoc, d.Projects.AddDocument)
		api.DELETE("/projects/:id/documents/:docId", writeDoc, d.Projects.DeleteDocument)

		api.GET("/projects/:id/earned-value", read, d.Schedule.EarnedValue)
		api.GET("/schedule", read, d.Schedule.View)
		api.GET("/schedule/template", read, handler.Template)
	}

	return &Router{Engine: r}
}
