package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
	config *ConfigData
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// ensureSchema creates the configuration tables if they do not exist yet
func (s *SQLiteProvider) ensureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS storage_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			connection_string TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS controllers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			listen_addr TEXT,
			port INTEGER,
			cert TEXT,
			key TEXT,
			allowed_origin TEXT,
			home_address TEXT,
			work_address TEXT,
			api_key TEXT,
			api_endpoint TEXT,
			schedule TEXT,
			timezone TEXT,
			interval_minutes INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS secrets_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			aws_secret_name TEXT NOT NULL,
			aws_region TEXT
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create configuration schema: %w", err)
		}
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database. Repeat
// calls return the first load's result so that values applied on top of it,
// like the secrets overlay, stay visible to every consumer.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	if s.config != nil {
		return s.config, nil
	}

	config := &ConfigData{}

	// Load storage
	storage, err := s.queryStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	// Load controllers
	controllers, err := s.queryControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	// Load secrets overlay
	secrets, err := s.querySecretsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets config: %w", err)
	}
	config.Secrets = secrets

	s.config = config
	return config, nil
}

// GetStorageConfig returns storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	if s.config == nil {
		if _, err := s.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &s.config.Storage, nil
}

// GetControllers returns controller configurations
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	if s.config == nil {
		if _, err := s.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return s.config.Controllers, nil
}

// GetSecretsConfig returns the secrets overlay configuration, nil when absent
func (s *SQLiteProvider) GetSecretsConfig() (*SecretsData, error) {
	if s.config == nil {
		if _, err := s.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return s.config.Secrets, nil
}

func (s *SQLiteProvider) queryStorageConfig() (*StorageData, error) {
	storage := &StorageData{}

	var connString string
	err := s.db.QueryRow(`SELECT connection_string FROM storage_config WHERE id = 1`).Scan(&connString)
	if err == sql.ErrNoRows {
		return storage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	}

	storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString}
	return storage, nil
}

func (s *SQLiteProvider) queryControllers() ([]ControllerData, error) {
	query := `
		SELECT type, listen_addr, port, cert, key, allowed_origin,
		       home_address, work_address, api_key, api_endpoint,
		       schedule, timezone, interval_minutes
		FROM controllers
		ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var ctype string
		var listenAddr, cert, key, allowedOrigin sql.NullString
		var homeAddress, workAddress, apiKey, apiEndpoint sql.NullString
		var schedule, timezone sql.NullString
		var port, intervalMinutes sql.NullInt64

		err := rows.Scan(
			&ctype, &listenAddr, &port, &cert, &key, &allowedOrigin,
			&homeAddress, &workAddress, &apiKey, &apiEndpoint,
			&schedule, &timezone, &intervalMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		controller := ControllerData{Type: ctype}

		switch ctype {
		case "gatherer":
			controller.Gatherer = &GathererData{
				HomeAddress:     homeAddress.String,
				WorkAddress:     workAddress.String,
				APIKey:          apiKey.String,
				APIEndpoint:     apiEndpoint.String,
				Schedule:        schedule.String,
				Timezone:        timezone.String,
				IntervalMinutes: int(intervalMinutes.Int64),
			}
		case "restserver", "rest":
			controller.RESTServer = &RESTServerData{
				Cert:          cert.String,
				Key:           key.String,
				Port:          int(port.Int64),
				ListenAddr:    listenAddr.String,
				AllowedOrigin: allowedOrigin.String,
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

func (s *SQLiteProvider) querySecretsConfig() (*SecretsData, error) {
	var name string
	var region sql.NullString
	err := s.db.QueryRow(`SELECT aws_secret_name, aws_region FROM secrets_config WHERE id = 1`).Scan(&name, &region)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query secrets config: %w", err)
	}

	return &SecretsData{
		AWSSecretName: name,
		AWSRegion:     region.String,
	}, nil
}

// SaveConfig writes a complete configuration into the database, replacing
// whatever was there before. Used by the config-convert tool.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"storage_config", "controllers", "secrets_config"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if config.Storage.TimescaleDB != nil {
		_, err = tx.Exec(`INSERT INTO storage_config (id, connection_string) VALUES (1, ?)`,
			config.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return fmt.Errorf("failed to insert storage config: %w", err)
		}
	}

	for _, controller := range config.Controllers {
		switch {
		case controller.Gatherer != nil:
			_, err = tx.Exec(`
				INSERT INTO controllers (type, home_address, work_address, api_key, api_endpoint, schedule, timezone, interval_minutes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				controller.Type,
				controller.Gatherer.HomeAddress,
				controller.Gatherer.WorkAddress,
				controller.Gatherer.APIKey,
				controller.Gatherer.APIEndpoint,
				controller.Gatherer.Schedule,
				controller.Gatherer.Timezone,
				controller.Gatherer.IntervalMinutes,
			)
		case controller.RESTServer != nil:
			_, err = tx.Exec(`
				INSERT INTO controllers (type, listen_addr, port, cert, key, allowed_origin)
				VALUES (?, ?, ?, ?, ?, ?)`,
				controller.Type,
				controller.RESTServer.ListenAddr,
				controller.RESTServer.Port,
				controller.RESTServer.Cert,
				controller.RESTServer.Key,
				controller.RESTServer.AllowedOrigin,
			)
		default:
			_, err = tx.Exec(`INSERT INTO controllers (type) VALUES (?)`, controller.Type)
		}
		if err != nil {
			return fmt.Errorf("failed to insert %s controller: %w", controller.Type, err)
		}
	}

	if config.Secrets != nil {
		_, err = tx.Exec(`INSERT INTO secrets_config (id, aws_secret_name, aws_region) VALUES (1, ?, ?)`,
			config.Secrets.AWSSecretName, config.Secrets.AWSRegion)
		if err != nil {
			return fmt.Errorf("failed to insert secrets config: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.config = nil
	return nil
}

// IsReadOnly returns false since SQLite configurations can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
