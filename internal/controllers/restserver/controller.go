// Package restserver serves the commute heatmap API and health endpoints.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"commutewatch/internal/controllers"
	"commutewatch/internal/log"
	"commutewatch/internal/types"
	"commutewatch/pkg/config"
	"commutewatch/pkg/heatmap"
)

// SampleSource provides gathered commute samples for the heatmap endpoints.
// It is implemented by the database client.
type SampleSource interface {
	FetchGatheredSamples(ctx context.Context) ([]heatmap.RawSample, error)
	Health(ctx context.Context) error
}

// SchedulerReporter exposes the gathering scheduler to the health endpoints.
// It is implemented by the gatherer controller.
type SchedulerReporter interface {
	TriggerRun() (string, error)
	Status() types.SchedulerStatus
}

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	DBEnabled      bool
	samples        SampleSource
	scheduler      SchedulerReporter
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc *config.RESTServerData, scheduler SchedulerReporter, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		scheduler:      scheduler,
		logger:         logger,
	}

	if rc != nil {
		ctrl.restConfig = *rc
	}

	// Load configuration
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if ctrl.restConfig.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.restConfig.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if ctrl.restConfig.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		ctrl.restConfig.Port = 8080
	}

	// If a TimescaleDB database was configured, set up a database client so
	// the handlers can retrieve gathered samples
	if cfgData.Storage.TimescaleDB.GetConnectionString() != "" {
		db, err := controllers.SetupDatabaseConnection(configProvider, logger)
		if err != nil {
			return nil, fmt.Errorf("REST server could not connect to database: %v", err)
		}
		ctrl.samples = db
		ctrl.DBEnabled = true
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.restConfig.ListenAddr, ctrl.restConfig.Port)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()

	// Log requests at debug level
	router.Use(c.requestMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("", c.handlers.GetAPIRoot).Methods("GET")
	api.HandleFunc("/", c.handlers.GetAPIRoot).Methods("GET")
	api.HandleFunc("/commute/heatmap", c.handlers.GetCommuteHeatmap).Methods("GET")
	api.HandleFunc("/commute/directions", c.handlers.GetCommuteDirections).Methods("GET")

	router.HandleFunc("/healthcheck", c.handlers.GetHealthcheck).Methods("GET")
	router.HandleFunc("/healthcheck/scheduler", c.handlers.GetSchedulerStatus).Methods("GET")
	router.HandleFunc("/healthcheck/scheduler/trigger", c.handlers.TriggerGatheringRun).Methods("POST")

	// When a specific frontend origin is configured, wrap the router with
	// credentialed CORS for it. Otherwise the response formatter's wildcard
	// header applies.
	if c.restConfig.AllowedOrigin != "" {
		return ghandlers.CORS(
			ghandlers.AllowedOrigins([]string{c.restConfig.AllowedOrigin}),
			ghandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			ghandlers.AllowedHeaders([]string{"Content-Type"}),
			ghandlers.AllowCredentials(),
		)(router)
	}

	return router
}

// requestMiddleware logs each request and the time taken to serve it
func (c *Controller) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%s %s from %s served in %v", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}
