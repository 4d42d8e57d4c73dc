package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file. Repeat calls
// return the first load's result so that values applied on top of it, like
// the secrets overlay, stay visible to every consumer.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
		Secrets     *SecretsYAML     `yaml:"secrets,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	// Convert storage
	config.Storage = StorageData{}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	// Convert controllers
	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.Gatherer != nil {
			config.Controllers[i].Gatherer = &GathererData{
				HomeAddress:     controller.Gatherer.HomeAddress,
				WorkAddress:     controller.Gatherer.WorkAddress,
				APIKey:          controller.Gatherer.APIKey,
				APIEndpoint:     controller.Gatherer.APIEndpoint,
				Schedule:        controller.Gatherer.Schedule,
				Timezone:        controller.Gatherer.Timezone,
				IntervalMinutes: controller.Gatherer.IntervalMinutes,
			}
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:          controller.RESTServer.Cert,
				Key:           controller.RESTServer.Key,
				Port:          controller.RESTServer.Port,
				ListenAddr:    controller.RESTServer.ListenAddr,
				AllowedOrigin: controller.RESTServer.AllowedOrigin,
			}
		}
	}

	// Convert secrets
	if yamlConfig.Secrets != nil {
		config.Secrets = &SecretsData{
			AWSSecretName: yamlConfig.Secrets.AWSSecretName,
			AWSRegion:     yamlConfig.Secrets.AWSRegion,
		}
	}

	y.config = config
	return config, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// GetSecretsConfig returns the secrets overlay configuration, nil when absent
func (y *YAMLProvider) GetSecretsConfig() (*SecretsData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Secrets, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the original format
type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	Gatherer   *GathererYAML   `yaml:"gatherer,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type GathererYAML struct {
	HomeAddress     string `yaml:"home-address"`
	WorkAddress     string `yaml:"work-address"`
	APIKey          string `yaml:"api-key,omitempty"`
	APIEndpoint     string `yaml:"api-endpoint,omitempty"`
	Schedule        string `yaml:"schedule,omitempty"`
	Timezone        string `yaml:"timezone,omitempty"`
	IntervalMinutes int    `yaml:"interval-minutes,omitempty"`
}

type RESTServerYAML struct {
	Cert          string `yaml:"cert,omitempty"`
	Key           string `yaml:"key,omitempty"`
	Port          int    `yaml:"port,omitempty"`
	ListenAddr    string `yaml:"listen-addr,omitempty"`
	AllowedOrigin string `yaml:"allowed-origin,omitempty"`
}

type SecretsYAML struct {
	AWSSecretName string `yaml:"aws-secret-name"`
	AWSRegion     string `yaml:"aws-region,omitempty"`
}
