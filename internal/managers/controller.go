package managers

import (
	"context"
	"fmt"
	"sync"

	"commutewatch/internal/controllers/gatherer"
	"commutewatch/internal/controllers/restserver"
	"commutewatch/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		logger:         logger,
		controllers:    make([]Controller, 0),
	}

	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configurations: %v", err)
	}

	// Gatherers are created first so the REST server can report scheduler
	// state regardless of configuration order.
	for _, con := range controllerConfigs {
		if con.Type != "gatherer" {
			continue
		}
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	for _, con := range controllerConfigs {
		if con.Type == "gatherer" {
			continue
		}
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	controllers    []Controller
	scheduler      restserver.SchedulerReporter
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case "gatherer":
		g, err := gatherer.NewGathererController(cm.ctx, cm.wg, cm.configProvider, cc.Gatherer, cm.logger)
		if err != nil {
			return nil, err
		}
		if cm.scheduler == nil {
			cm.scheduler = g
		}
		return g, nil
	case "restserver", "rest":
		return restserver.NewController(cm.ctx, cm.wg, cm.configProvider, cc.RESTServer, cm.scheduler, cm.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
