// Package restserver provides the HTTP read facade over the telemetry
// store: JSON/MessagePack sensor-data endpoints, a statistics summary,
// Prometheus metrics and a health check. It touches the store only
// through the read interface.
package restserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/linescope/linescope/internal/monitoring"
	"github.com/linescope/linescope/internal/store"
	"github.com/linescope/linescope/pkg/config"
	"github.com/linescope/linescope/pkg/responseformat"
	"go.uber.org/zap"
)

// Controller represents the REST server controller.
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	Server    http.Server
	handlers  *Handlers
	logger    *zap.SugaredLogger
	listenOn  string
}

// NewController creates a new REST server controller reading from st.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg config.HTTPData, st store.Reader, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		logger:   logger,
		listenOn: net.JoinHostPort(cfg.ListenAddr, fmt.Sprintf("%d", cfg.Port)),
		handlers: &Handlers{
			store:     st,
			cursor:    st.NewCursor(),
			formatter: responseformat.NewFormatter(),
			logger:    logger,
		},
	}

	router := mux.NewRouter()
	router.Use(ctrl.loggingMiddleware)
	router.HandleFunc("/api/sensor-data", ctrl.handlers.GetSensorData).Methods("GET")
	router.HandleFunc("/api/sensors", ctrl.handlers.GetSensors).Methods("GET")
	router.HandleFunc("/api/sensors/latest", ctrl.handlers.GetSensorsLatest).Methods("GET")
	router.HandleFunc("/api/tilt", ctrl.handlers.GetTowerTilt).Methods("GET")
	router.HandleFunc("/api/heartbeat", ctrl.handlers.GetHeartbeat).Methods("GET")
	router.HandleFunc("/api/stats", ctrl.handlers.GetStats).Methods("GET")
	router.HandleFunc("/api/info", ctrl.handlers.GetDataInfo).Methods("GET")
	router.HandleFunc("/healthz", ctrl.handlers.Healthz).Methods("GET")
	router.Handle("/metrics", monitoring.Handler()).Methods("GET")

	ctrl.Server = http.Server{
		Addr:         ctrl.listenOn,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return ctrl
}

func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		c.logger.Debugf("%s %s %s %s", req.Method, req.URL.Path, req.RemoteAddr, time.Since(start))
	})
}

// StartController starts the HTTP server and arranges shutdown when the
// controller context is cancelled.
func (c *Controller) StartController() error {
	listener, err := net.Listen("tcp", c.listenOn)
	if err != nil {
		return fmt.Errorf("could not bind HTTP server on %s: %w", c.listenOn, err)
	}

	c.logger.Infof("HTTP read API listening on %s", listener.Addr())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("HTTP server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}
