package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)
	GetSecretsConfig() (*SecretsData, error)

	// Configuration management (for SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
	Secrets     *SecretsData     `json:"secrets,omitempty"`
}

// StorageData holds the configuration for the storage backend
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// GetConnectionString returns the connection string, or empty if unset
func (t *TimescaleDBData) GetConnectionString() string {
	if t == nil {
		return ""
	}
	return t.ConnectionString
}

// ControllerData holds the configuration for the various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	Gatherer   *GathererData   `json:"gatherer,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

// GathererData configures the commute sample gatherer
type GathererData struct {
	HomeAddress     string `json:"home_address"`
	WorkAddress     string `json:"work_address"`
	APIKey          string `json:"api_key,omitempty"`
	APIEndpoint     string `json:"api_endpoint,omitempty"`
	Schedule        string `json:"schedule,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	IntervalMinutes int    `json:"interval_minutes,omitempty"`
}

// RESTServerData configures the REST API server
type RESTServerData struct {
	Cert          string `json:"cert,omitempty"`
	Key           string `json:"key,omitempty"`
	Port          int    `json:"port,omitempty"`
	ListenAddr    string `json:"listen_addr,omitempty"`
	AllowedOrigin string `json:"allowed_origin,omitempty"`
}

// SecretsData configures the optional AWS Secrets Manager overlay
type SecretsData struct {
	AWSSecretName string `json:"aws_secret_name"`
	AWSRegion     string `json:"aws_region,omitempty"`
}
