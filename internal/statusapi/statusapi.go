// Package statusapi is a thin Gin HTTP façade over internal/readapi,
// gated behind config.StatusAPI: a read-only diagnostic surface separate
// from the vSphere-facing wire protocol, in the same Gin + gin-contrib/zap
// style the example corpus's migration-agent teacher uses for its own
// HTTP server.
package statusapi

import (
	"context"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubev2v/vcenter-collector/internal/model"
	"github.com/kubev2v/vcenter-collector/internal/readapi"
)

// Server is the status/diagnostics HTTP server.
type Server struct {
	addr   string
	read   *readapi.ReadAPI
	router *gin.Engine
	srv    *http.Server
	log    *zap.SugaredLogger
}

func New(addr string, read *readapi.ReadAPI) *Server {
	log := zap.L().Named("statusapi")
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(ginzap.Ginzap(log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log, true))

	s := &Server{
		addr:   addr,
		read:   read,
		router: router,
		log:    log.Sugar(),
	}
	s.routes()
	return s
}

// ServeHTTP lets tests exercise routes directly via httptest, without
// binding a real listener, since gin.Engine already implements
// http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/stats", s.handleStats)
	s.router.GET("/services", s.handleServices)
}

// Start runs the HTTP server until ctx is cancelled, mirroring the
// teacher's blocking-Start-with-background-shutdown pattern.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	total, used := s.read.Statistics()
	c.JSON(http.StatusOK, gin.H{
		"arena_total": total,
		"arena_used":  used,
	})
}

type serviceSummary struct {
	URL                 string `json:"url"`
	Type                string `json:"type"`
	State               string `json:"state"`
	Version             string `json:"version"`
	ConsecutiveFailures int32  `json:"consecutive_failures"`
	LastInventory       int64  `json:"last_inventory"`
	LastPerf            int64  `json:"last_perf"`
}

func (s *Server) handleServices(c *gin.Context) {
	services := s.read.Services()
	out := make([]serviceSummary, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceSummary{
			URL:                 svc.URL,
			Type:                svc.Type().String(),
			State:               stateLabel(svc.State()),
			Version:             svc.Version,
			ConsecutiveFailures: svc.ConsecutiveFailures.Load(),
			LastInventory:       svc.LastInventory.Load(),
			LastPerf:            svc.LastPerf.Load(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

func stateLabel(state model.ServiceState) string {
	switch {
	case state&model.StateFailed != 0:
		return "failed"
	case state&model.StateUpdatingPerf != 0:
		return "updating_perf"
	case state&model.StateUpdating != 0:
		return "updating"
	case state&model.StateReady != 0:
		return "ready"
	default:
		return "new"
	}
}
