package config

import (
	"time"

	"github.com/rentalflow/service-rental/pkg/config"
	"github.com/rentalflow/service-rental/pkg/database"
)

// ChapaConfig holds payment provider credentials.
type ChapaConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	MigrationsDir     string
	SchedulerInterval time.Duration
	DBConfig          database.PostgresConfig
	JWTConfig         config.JWTConfig
	KafkaConfig       config.KafkaConfig
	ChapaConfig       ChapaConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}

	v.SetDefault("db_name", "rental")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("scheduler_interval", "1m")
	v.SetDefault("chapa_base_url", "")
	v.SetDefault("chapa_callback_url", "")

	return &ServiceConfig{
		Port:              config.GetServicePort(v),
		AppEnv:            config.GetAppEnv(v),
		MigrationsDir:     v.GetString("migrations_dir"),
		SchedulerInterval: v.GetDuration("scheduler_interval"),
		DBConfig:          config.LoadDatabaseConfig(v, "db_name"),
		JWTConfig:         config.LoadJWTConfig(v),
		KafkaConfig:       config.LoadKafkaConfig(v),
		ChapaConfig: ChapaConfig{
			SecretKey:   v.GetString("chapa_secret_key"),
			BaseURL:     v.GetString("chapa_base_url"),
			CallbackURL: v.GetString("chapa_callback_url"),
		},
	}, nil
}
