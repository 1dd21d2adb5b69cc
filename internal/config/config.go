package config

import (
	"time"

	"github.com/spf13/viper"
)

// Configuration comes from environment variables set on the pod; the hub
// geofence is process-wide, loaded exactly once here and never mutated at
// runtime. These defaults are the single home of the hub coordinates.

type Config struct {
	DBHost            string `mapstructure:"DB_HOST"`
	DBPort            string `mapstructure:"DB_PORT"`
	DBUser            string `mapstructure:"DB_USER"`
	DBPassword        string `mapstructure:"DB_PASSWORD"`
	DBName            string `mapstructure:"DB_NAME"`
	ServerPort        string `mapstructure:"SERVER_PORT"`
	AWSRegion         string `mapstructure:"AWS_REGION"`
	AWSEndpoint       string `mapstructure:"AWS_ENDPOINT"`
	LedgerSQSQueueURL string `mapstructure:"LEDGER_SQS_QUEUE_URL"`
	NotifySQSQueueURL string `mapstructure:"NOTIFY_SQS_QUEUE_URL"`
	HRAPIURL          string `mapstructure:"HR_API_URL"`
	SESSender         string `mapstructure:"SES_SENDER"`

	HubLatitude     float64 `mapstructure:"HUB_LATITUDE"`
	HubLongitude    float64 `mapstructure:"HUB_LONGITUDE"`
	HubRadiusMeters float64 `mapstructure:"HUB_RADIUS_METERS"`

	GeoTimeoutMs     int  `mapstructure:"GEO_TIMEOUT_MS"`
	GeoMaxAgeMs      int  `mapstructure:"GEO_MAX_AGE_MS"`
	OptimisticSignIn bool `mapstructure:"OPTIMISTIC_SIGN_IN"`

	IsLocalDev bool `mapstructure:"IS_LOCAL_DEV"`
}

// GeoTimeout returns the bound for a single location acquisition.
func (c Config) GeoTimeout() time.Duration {
	return time.Duration(c.GeoTimeoutMs) * time.Millisecond
}

// GeoMaxAge returns the oldest acceptable cached position; zero means every
// acquisition must be fresh.
func (c Config) GeoMaxAge() time.Duration {
	return time.Duration(c.GeoMaxAgeMs) * time.Millisecond
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("LEDGER_SQS_QUEUE_URL", "http://localstack:4566/000000000000/ledger-queue")
	viper.SetDefault("NOTIFY_SQS_QUEUE_URL", "http://localstack:4566/000000000000/notify-queue")
	viper.SetDefault("HR_API_URL", "http://localhost:8081/")
	viper.SetDefault("SES_SENDER", "attendance@hub.local")

	// Ilorin Innovation Hub
	viper.SetDefault("HUB_LATITUDE", 8.479898)
	viper.SetDefault("HUB_LONGITUDE", 4.541840)
	viper.SetDefault("HUB_RADIUS_METERS", 100.0)

	viper.SetDefault("GEO_TIMEOUT_MS", 30000)
	viper.SetDefault("GEO_MAX_AGE_MS", 0)
	viper.SetDefault("OPTIMISTIC_SIGN_IN", false)

	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
