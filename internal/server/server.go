package server

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/engine"
	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"github.com/GriffinCanCode/FlowOS/engine/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the ops HTTP surface: health, status and Prometheus metrics.
// It is not a GUI; it only observes and stops the pipeline.
type Server struct {
	router  *gin.Engine
	engine  *engine.Engine
	metrics *monitoring.Metrics
	log     *logging.Logger
	httpSrv *http.Server
}

// Config contains server configuration
type Config struct {
	Host string
	Port string
}

// New creates the ops server around an engine.
func New(eng *engine.Engine, metrics *monitoring.Metrics, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	s := &Server{
		router:  router,
		engine:  eng,
		metrics: metrics,
		log:     log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/status", s.status)
	s.router.POST("/stop", s.stop)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// health handles liveness checks
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"running": s.engine.IsRunning(),
		"run_id":  s.engine.ID(),
	})
}

// status reports the pipeline state and metric snapshot
func (s *Server) status(c *gin.Context) {
	resp := gin.H{
		"running": s.engine.IsRunning(),
		"run_id":  s.engine.ID(),
	}
	if mgr := s.engine.Manager(); mgr != nil {
		depths := mgr.QueueDepths()
		if s.metrics != nil {
			s.metrics.ObserveQueueDepths(depths)
		}
		resp["queue_depths"] = depths
	}
	if s.metrics != nil {
		resp["metrics"] = s.metrics.GetSnapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// stop requests a pipeline stop
func (s *Server) stop(c *gin.Context) {
	s.engine.Runtime().RequestStop()
	s.engine.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// Run starts the HTTP server and blocks.
func (s *Server) Run(cfg Config) error {
	addr := cfg.Host + ":" + cfg.Port
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.log.Info("ops server listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the HTTP server down gracefully.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
