package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// AWSConfigProvider reads plain settings from the environment and
// credentials from AWS Secrets Manager
type AWSConfigProvider struct {
	env             Provider
	secretsProvider Provider
}

// NewProvider returns an AWSConfigProvider when AWS_SECRET_NAME is set and
// an EnvProvider otherwise
func NewProvider() (Provider, error) {
	if os.Getenv("AWS_SECRET_NAME") == "" {
		return NewEnvProvider(""), nil
	}
	return NewAWSConfigProvider()
}

// NewAWSConfigProvider creates a new AWS configuration provider
func NewAWSConfigProvider() (Provider, error) {
	// Get secret name from environment variable
	secretName := os.Getenv("AWS_SECRET_NAME")
	if secretName == "" {
		return nil, fmt.Errorf("AWS_SECRET_NAME environment variable not set")
	}

	// Create secrets provider
	secretsProvider, err := NewAWSSecretsProvider(secretName)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS secrets provider: %w", err)
	}

	return NewLayeredProvider(NewEnvProvider(""), secretsProvider), nil
}

// NewLayeredProvider combines an environment provider with a secrets
// provider. Plain keys are looked up in env first.
func NewLayeredProvider(env, secrets Provider) *AWSConfigProvider {
	return &AWSConfigProvider{
		env:             env,
		secretsProvider: secrets,
	}
}

// GetEnvironment returns the current environment
func (p *AWSConfigProvider) GetEnvironment() Environment {
	return p.secretsProvider.GetEnvironment()
}

// GetString retrieves a string configuration value
func (p *AWSConfigProvider) GetString(ctx context.Context, key string) (string, error) {
	if value, err := p.env.GetString(ctx, key); err == nil {
		return value, nil
	}
	return p.secretsProvider.GetString(ctx, key)
}

// GetInt retrieves an integer configuration value
func (p *AWSConfigProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetBool retrieves a boolean configuration value
func (p *AWSConfigProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// GetSecret retrieves a secret value. Secrets never come from the environment.
func (p *AWSConfigProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.secretsProvider.GetSecret(ctx, key)
}
