// Package secrets overlays sensitive configuration values from AWS Secrets
// Manager onto the loaded configuration. Local development can skip the
// overlay entirely by setting DEVELOPMENT_MODE=dev.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"commutewatch/internal/log"
	"commutewatch/pkg/config"
)

// Secret keys recognized in the fetched secret payload.
const (
	keyRoutesAPIKey       = "routes_api_key"
	keyDBConnectionString = "db_connection_string"
)

// DevelopmentMode reports whether the DEVELOPMENT_MODE environment variable
// requests a local run without Secrets Manager.
func DevelopmentMode() bool {
	return os.Getenv("DEVELOPMENT_MODE") == "dev"
}

// Overlay fetches the configured secret and merges its values into cfg.
// Secret values win over whatever the config backend supplied. A missing
// secrets section or development mode leaves cfg untouched.
func Overlay(ctx context.Context, cfg *config.ConfigData) error {
	if cfg.Secrets == nil || cfg.Secrets.AWSSecretName == "" {
		log.Debug("no secrets configuration present; skipping secrets overlay")
		return nil
	}

	if DevelopmentMode() {
		log.Info("DEVELOPMENT_MODE=dev set; skipping AWS Secrets Manager overlay")
		return nil
	}

	values, err := fetchSecret(ctx, cfg.Secrets)
	if err != nil {
		return err
	}

	applied := 0
	if v, ok := values[keyRoutesAPIKey]; ok && v != "" {
		for i := range cfg.Controllers {
			if cfg.Controllers[i].Gatherer != nil {
				cfg.Controllers[i].Gatherer.APIKey = v
				applied++
			}
		}
	}
	if v, ok := values[keyDBConnectionString]; ok && v != "" {
		cfg.Storage.TimescaleDB = &config.TimescaleDBData{ConnectionString: v}
		applied++
	}

	log.Infof("applied %d secret value(s) from AWS Secrets Manager", applied)
	return nil
}

func fetchSecret(ctx context.Context, sc *config.SecretsData) (map[string]string, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if sc.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(sc.AWSRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS configuration: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(sc.AWSSecretName),
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching secret %s: %w", sc.AWSSecretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string payload", sc.AWSSecretName)
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return nil, fmt.Errorf("error parsing secret %s as JSON: %w", sc.AWSSecretName, err)
	}

	return values, nil
}
