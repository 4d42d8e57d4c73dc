package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"commutewatch/internal/log"
	"commutewatch/internal/types"
	"commutewatch/pkg/config"
	"commutewatch/pkg/heatmap"
	"go.uber.org/zap"
)

// Client holds the connection to a TimescaleDB database
type Client struct {
	configProvider config.ConfigProvider
	DB             *gorm.DB // Exported so it can be accessed from other packages
	logger         *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *Client {
	return &Client{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect() error {
	storageConfig, err := c.configProvider.GetStorageConfig()
	if err != nil {
		return fmt.Errorf("error loading storage configuration: %v", err)
	}

	connectionString := storageConfig.TimescaleDB.GetConnectionString()
	if connectionString == "" {
		return fmt.Errorf("TimescaleDB connection string not configured")
	}

	c.DB, err = CreateConnection(connectionString)
	return err
}

// ConnectToTimescaleDB is an alias for Connect for backward compatibility
func (c *Client) ConnectToTimescaleDB() error {
	return c.Connect()
}

// FetchGatheredSamples retrieves every slot with a gathered duration, ordered by
// departure time, converted to the heatmap pipeline's raw sample records.
func (c *Client) FetchGatheredSamples(ctx context.Context) ([]heatmap.RawSample, error) {
	var slots []types.CommuteSlot

	err := c.DB.WithContext(ctx).
		Where("duration IS NOT NULL AND duration <> ''").
		Order("departure_time_rfc3339").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("error querying database for gathered commute slots: %+v", err)
	}

	samples := make([]heatmap.RawSample, 0, len(slots))
	for _, slot := range slots {
		samples = append(samples, heatmap.RawSample{
			DateLocal:        slot.DateLocal,
			DepartureRFC3339: slot.DepartureTime,
			Direction:        slot.Direction,
			Duration:         slot.Duration,
		})
	}

	return samples, nil
}

// Health verifies database connectivity with a lightweight query and a ping
func (c *Client) Health(ctx context.Context) error {
	var result int
	if err := c.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("database query failed: %v", err)
	}

	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("unable to get underlying database connection: %v", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %v", err)
	}

	return nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
