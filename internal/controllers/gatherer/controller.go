// Package gatherer schedules weekly commute departure slots and collects
// travel times for them from the Google Routes API.
package gatherer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"commutewatch/internal/controllers"
	"commutewatch/internal/database"
	"commutewatch/internal/log"
	"commutewatch/internal/types"
	"commutewatch/pkg/config"
)

// Defaults applied when the gatherer configuration leaves fields unset.
const (
	DefaultSchedule        = "0 23 * * FRI"
	DefaultTimezone        = "America/Los_Angeles"
	DefaultIntervalMinutes = 60
)

// GathererController owns the commute slot schedule and the Routes API
// sampling runs
type GathererController struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	DB             *database.Client

	gathererConfig config.GathererData
	location       *time.Location
	httpClient     *http.Client
	cron           *cron.Cron
	entryID        cron.EntryID

	mu          sync.Mutex
	started     bool
	inFlight    bool
	lastRunID   string
	lastRunTime time.Time
	lastError   string
}

// NewGathererController creates a new gatherer controller
func NewGathererController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, gc *config.GathererData, logger *zap.SugaredLogger) (*GathererController, error) {
	if gc == nil {
		return &GathererController{}, fmt.Errorf("gatherer controller configuration is missing")
	}

	g := GathererController{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		logger:         logger,
		gathererConfig: *gc,
	}

	// Validate TimescaleDB configuration
	if err := controllers.ValidateTimescaleDBConfig(configProvider, "gatherer"); err != nil {
		return &GathererController{}, err
	}

	err := controllers.ValidateRequiredFields(map[string]string{
		"gatherer.home-address": g.gathererConfig.HomeAddress,
		"gatherer.work-address": g.gathererConfig.WorkAddress,
		"gatherer.api-key":      g.gathererConfig.APIKey,
	})
	if err != nil {
		return &GathererController{}, err
	}

	if g.gathererConfig.Schedule == "" {
		log.Info("gatherer.schedule not provided; defaulting to " + DefaultSchedule)
		g.gathererConfig.Schedule = DefaultSchedule
	}
	if g.gathererConfig.Timezone == "" {
		log.Info("gatherer.timezone not provided; defaulting to " + DefaultTimezone)
		g.gathererConfig.Timezone = DefaultTimezone
	}
	if g.gathererConfig.APIEndpoint == "" {
		g.gathererConfig.APIEndpoint = defaultAPIEndpoint
	}
	if g.gathererConfig.IntervalMinutes == 0 {
		g.gathererConfig.IntervalMinutes = DefaultIntervalMinutes
	}

	g.location, err = time.LoadLocation(g.gathererConfig.Timezone)
	if err != nil {
		return &GathererController{}, fmt.Errorf("error loading gatherer timezone %s: %v", g.gathererConfig.Timezone, err)
	}

	g.httpClient = controllers.NewHTTPClient(requestTimeout)

	// Setup database connection
	db, err := controllers.SetupDatabaseConnection(configProvider, logger)
	if err != nil {
		return &GathererController{}, err
	}
	g.DB = db

	err = g.CreateTables()
	if err != nil {
		return &GathererController{}, err
	}

	return &g, nil
}

func (g *GathererController) StartController() error {
	log.Info("Starting gatherer controller...")

	g.cron = cron.New(cron.WithLocation(g.location))
	entryID, err := g.cron.AddFunc(g.gathererConfig.Schedule, func() { g.runCycle("cron") })
	if err != nil {
		return fmt.Errorf("error registering gathering schedule %q: %v", g.gathererConfig.Schedule, err)
	}
	g.entryID = entryID
	g.cron.Start()

	g.mu.Lock()
	g.started = true
	g.mu.Unlock()

	log.Infof("Gathering scheduled: %s (%s)", g.gathererConfig.Schedule, g.gathererConfig.Timezone)

	go g.stopCronOnShutdown()
	go g.sweepPendingPeriodically()

	return nil
}

func (g *GathererController) CreateTables() error {
	err := g.DB.DB.AutoMigrate(types.CommuteSlot{})
	if err != nil {
		return fmt.Errorf("error creating or migrating commute slot database table: %v", err)
	}

	return nil
}

// stopCronOnShutdown stops the scheduler when the controller context is
// cancelled and waits for an in-flight run to finish.
func (g *GathererController) stopCronOnShutdown() {
	g.wg.Add(1)
	defer g.wg.Done()

	<-g.ctx.Done()

	g.mu.Lock()
	g.started = false
	g.mu.Unlock()

	stopCtx := g.cron.Stop()
	<-stopCtx.Done()
	log.Info("Gathering scheduler stopped")
}

// sweepPendingPeriodically retries slots that are still pending between
// scheduled runs, covering restarts and failed cron cycles.
func (g *GathererController) sweepPendingPeriodically() {
	g.wg.Add(1)
	defer g.wg.Done()

	interval := time.Duration(g.gathererConfig.IntervalMinutes) * time.Minute
	controllers.RunPeriodicTask(g.ctx, controllers.PeriodicTask{
		Name:     "pending commute slot sweep",
		Interval: interval,
		Task:     g.sweepPending,
	}, g.logger)
}

func (g *GathererController) sweepPending() error {
	runID, err := g.beginRun()
	if err != nil {
		log.Debugf("skipping pending slot sweep: %v", err)
		return nil
	}

	gathered, failed, err := g.gatherPendingSlots()
	g.finishRun(err)
	if err != nil {
		return fmt.Errorf("pending slot sweep %s failed: %v", runID, err)
	}
	if gathered > 0 || failed > 0 {
		log.Infof("Pending slot sweep %s complete: %d gathered, %d marked failed", runID, gathered, failed)
	}
	return nil
}

// beginRun reserves the single run slot. Runs are serialized so the cron
// cycle, the pending sweep, and manual triggers never overlap.
func (g *GathererController) beginRun() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return "", types.ErrSchedulerNotRunning
	}
	if g.inFlight {
		return "", types.ErrRunInFlight
	}

	g.inFlight = true
	runID := uuid.New().String()
	g.lastRunID = runID
	g.lastRunTime = time.Now()
	return runID, nil
}

func (g *GathererController) finishRun(runErr error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inFlight = false
	if runErr != nil {
		g.lastError = runErr.Error()
	} else {
		g.lastError = ""
	}
}

// runCycle generates next week's slots and then gathers every pending slot.
func (g *GathererController) runCycle(trigger string) {
	runID, err := g.beginRun()
	if err != nil {
		log.Infof("skipping %s gathering run: %v", trigger, err)
		return
	}

	log.Infof("Starting gathering run %s (trigger: %s)", runID, trigger)
	err = g.executeCycle()
	g.finishRun(err)
	if err != nil {
		log.Errorf("gathering run %s failed: %v", runID, err)
		return
	}
	log.Infof("Gathering run %s complete", runID)
}

func (g *GathererController) executeCycle() error {
	created, err := g.generateSlots()
	if err != nil {
		return fmt.Errorf("error generating commute slots: %v", err)
	}
	log.Infof("Schedule generated: %d new slot(s)", created)

	_, _, err = g.gatherPendingSlots()
	if err != nil {
		return fmt.Errorf("error gathering pending commute slots: %v", err)
	}

	return nil
}

// TriggerRun starts a gathering run in the background and returns its ID.
// It refuses when another run is already in flight.
func (g *GathererController) TriggerRun() (string, error) {
	runID, err := g.beginRun()
	if err != nil {
		return "", err
	}

	go func() {
		g.wg.Add(1)
		defer g.wg.Done()

		log.Infof("Starting gathering run %s (trigger: manual)", runID)
		err := g.executeCycle()
		g.finishRun(err)
		if err != nil {
			log.Errorf("gathering run %s failed: %v", runID, err)
			return
		}
		log.Infof("Gathering run %s complete", runID)
	}()

	return runID, nil
}

// Status reports the scheduler state for the health endpoints.
func (g *GathererController) Status() types.SchedulerStatus {
	g.mu.Lock()
	status := types.SchedulerStatus{
		Running:   g.started,
		InFlight:  g.inFlight,
		Schedule:  g.gathererConfig.Schedule,
		Timezone:  g.gathererConfig.Timezone,
		LastRunID: g.lastRunID,
		LastError: g.lastError,
	}
	if !g.lastRunTime.IsZero() {
		status.LastRunTime = g.lastRunTime.Format(time.RFC3339)
	}
	g.mu.Unlock()

	if status.Running && g.cron != nil {
		if entry := g.cron.Entry(g.entryID); entry.Valid() && !entry.Next.IsZero() {
			status.NextRunTime = entry.Next.Format(time.RFC3339)
		}
	}

	return status
}
