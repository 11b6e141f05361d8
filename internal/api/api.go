package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glefebvre/shufflarr/internal/lifecycle"
	"github.com/glefebvre/shufflarr/internal/scheduler"
	"github.com/glefebvre/shufflarr/internal/selection"
	"github.com/glefebvre/shufflarr/internal/store"
)

// Server exposes the addon protocol endpoints and the dashboard API
type Server struct {
	router    *gin.Engine
	engine    *selection.Engine
	manager   *lifecycle.Manager
	scheduler *scheduler.Scheduler
	store     *store.Store
	dataPath  string
	httpSrv   *http.Server
}

// NewServer creates a new API server instance
func NewServer(engine *selection.Engine, manager *lifecycle.Manager, sched *scheduler.Scheduler, st *store.Store, dataPath string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware())
	router.Use(cors.Default())

	s := &Server{
		router:    router,
		engine:    engine,
		manager:   manager,
		scheduler: sched,
		store:     st,
		dataPath:  dataPath,
	}

	s.setupRoutes()

	return s
}

// Run starts the API server on the specified port and blocks until it exits
func (s *Server) Run(port int) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// Addon protocol endpoints: pure reads of committed selections
	s.router.GET("/manifest.json", s.getManifest)
	s.router.GET("/catalog/:type/:id", s.getCatalog)

	// Dashboard API
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/lists", s.listLists)
		v1.POST("/lists", s.createList)
		v1.PUT("/lists/:id", s.updateList)
		v1.DELETE("/lists/:id", s.deleteList)

		v1.GET("/slots", s.listSlots)
		v1.POST("/slots", s.createSlot)
		v1.PUT("/slots/:id", s.updateSlot)
		v1.DELETE("/slots/:id", s.deleteSlot)
		v1.POST("/slots/:id/refresh", s.refreshSlot)

		v1.POST("/refresh", s.refreshAll)

		v1.GET("/settings", s.getSettings)
		v1.PUT("/settings", s.updateSettings)

		v1.GET("/scheduler", s.getSchedulerStatus)
	}
}
