package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AWS      AWSConfig
	DynamoDB DynamoDBConfig
	NATS     NATSConfig
	Redis    RedisConfig
	Server   ServerConfig
	Scrim    ScrimConfig
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

type DynamoDBConfig struct {
	TableName        string
	MaxRetries       int
	UseLocalEndpoint bool
}

type NATSConfig struct {
	URL                  string
	MaxReconnect         int
	ReconnectWaitSeconds int
	TimeoutSeconds       int
}

type RedisConfig struct {
	Address  string
	Password string
}

type ServerConfig struct {
	HTTPPort    int
	Environment string
	LogLevel    string
}

type ScrimConfig struct {
	ReadyCheckTimeoutMinutes int
	SweepIntervalMinutes     int
	StaleAfterHours          int
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath(configPath)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPIKELEAGUE")

	viper.SetDefault("Scrim.ReadyCheckTimeoutMinutes", 30)
	viper.SetDefault("Scrim.SweepIntervalMinutes", 10)
	viper.SetDefault("Scrim.StaleAfterHours", 12)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ScrimConfig) ReadyCheckTimeout() time.Duration {
	return time.Duration(c.ReadyCheckTimeoutMinutes) * time.Minute
}

func (c *ScrimConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func (c *ScrimConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterHours) * time.Hour
}
