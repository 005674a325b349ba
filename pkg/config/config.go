// Package config loads service configuration from environment variables
// through viper. Each service composes the shared sections it needs and adds
// its own keys on top.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rentalflow/service-rental/pkg/database"
)

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret          string
	AccessDuration  time.Duration
	RefreshDuration time.Duration
}

// KafkaConfig holds broker connection configuration.
type KafkaConfig struct {
	Brokers []string
}

// Load creates a viper instance bound to environment variables with the
// given prefix, e.g. prefix "RENTAL" binds "port" to RENTAL_PORT.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_access_duration", "15m")
	v.SetDefault("jwt_refresh_duration", "168h")
	v.SetDefault("kafka_brokers", "localhost:9092")

	return v, nil
}

// GetServicePort returns the configured HTTP port.
func GetServicePort(v *viper.Viper) string {
	return v.GetString("port")
}

// GetAppEnv returns the configured application environment.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("app_env")
}

// LoadDatabaseConfig reads the Postgres connection section. The database
// name key is passed in because each service owns its own database.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) database.PostgresConfig {
	return database.PostgresConfig{
		Host:     v.GetString("db_host"),
		Port:     v.GetString("db_port"),
		User:     v.GetString("db_user"),
		Password: v.GetString("db_password"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("db_sslmode"),
	}
}

// LoadJWTConfig reads the token signing section.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:          v.GetString("jwt_secret"),
		AccessDuration:  v.GetDuration("jwt_access_duration"),
		RefreshDuration: v.GetDuration("jwt_refresh_duration"),
	}
}

// LoadKafkaConfig reads the broker list, comma separated.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers: strings.Split(v.GetString("kafka_brokers"), ","),
	}
}
