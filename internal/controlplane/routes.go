package controlplane

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/controlplane/handlers"
	"github.com/openmined/notionsync/internal/controlplane/middleware"
	"github.com/openmined/notionsync/internal/sync"
	"github.com/openmined/notionsync/internal/version"
)

const defaultRate = "20-S"

// Engine is everything the control plane drives on the sync engine.
type Engine interface {
	handlers.Syncer
	handlers.Resolver
	handlers.Binder
	handlers.PageTransfer
	Conflicts() *sync.ConflictSet
}

type Services struct {
	Engine    Engine
	Settings  handlers.SettingsReader
	Databases handlers.DatabaseLister
	Journal   handlers.RunJournal // optional
	Watcher   VaultWatcher        // optional, triggers passes on local changes
}

type RouteConfig struct {
	Auth middleware.TokenAuthConfig
	Rate string // limiter format, defaults to 20-S
}

func SetupRoutes(svc *Services, routeConfig *RouteConfig) (http.Handler, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	rate := routeConfig.Rate
	if rate == "" {
		rate = defaultRate
	}
	rateLimiter, err := middleware.RateLimiter(rate)
	if err != nil {
		return nil, err
	}

	syncH := handlers.NewSyncHandler(svc.Engine)
	conflictsH := handlers.NewConflictsHandler(svc.Engine, svc.Engine.Conflicts())
	bindingsH := handlers.NewBindingsHandler(svc.Settings, svc.Engine)
	databasesH := handlers.NewDatabasesHandler(svc.Databases, svc.Settings)
	pagesH := handlers.NewPagesHandler(svc.Engine)
	statusH := handlers.NewStatusHandler(svc.Settings, svc.Engine.Conflicts(), svc.Journal)
	eventsH := handlers.NewEventsHandler(svc.Engine.Conflicts())

	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())
	r.Use(rateLimiter)

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	v1 := r.Group("/v1")
	v1.Use(middleware.TokenAuth(routeConfig.Auth))
	{
		v1.GET("/status", statusH.Status)

		v1.POST("/sync", syncH.Now)
		v1.GET("/sync/last", syncH.Last)

		v1.GET("/bindings", bindingsH.List)
		v1.PUT("/bindings/:id", bindingsH.Update)

		v1.GET("/databases", databasesH.List)

		v1.GET("/conflicts", conflictsH.List)
		v1.POST("/conflicts/resolve", conflictsH.Resolve)

		v1.GET("/pages/:id", pagesH.Get)
		v1.POST("/pages/:id/download", pagesH.Download)
		v1.POST("/files/upload", pagesH.Upload)

		v1.GET("/events", eventsH.Conflicts)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ControlPlaneError{
			ErrorCode: handlers.ErrCodeNotFound,
			Error:     "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ControlPlaneError{
			ErrorCode: handlers.ErrCodeBadRequest,
			Error:     "method not allowed",
		})
	})

	return r.Handler(), nil
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func IndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, version.Detailed())
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
