package config

import (
	"fmt"

	"github.com/rpattn/econgate/internal/db"
	"github.com/spf13/viper"
)

// Config carries everything the server binary needs at startup.
type Config struct {
	DB             db.Config
	ListenAddr     string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Load reads config.yaml from configPath when present and applies environment
// overrides (DB_HOST, DB_PORT, ... / SERVER_LISTEN_ADDR).
func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := Config{
		DB:             db.DefaultConfig(),
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes: 32 << 20,
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides

	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_DBNAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("server.listen_addr", "SERVER_LISTEN_ADDR")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.listen_addr") {
		cfg.ListenAddr = v.GetString("server.listen_addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.max_upload_bytes") {
		cfg.MaxUploadBytes = v.GetInt64("server.max_upload_bytes")
	}

	return cfg, nil
}
