package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pumphouse/salesfeed/internal/db"
)

// Config is the full application configuration.
type Config struct {
	Database       db.Config
	ListenAddr     string
	MigrationsPath string
	TargetBrand    string
	MergePolicy    string
	AdminToken     string
	CORSOrigin     string
}

// Default returns the configuration used when config.yaml and the
// environment supply nothing.
func Default() Config {
	return Config{
		Database:       db.DefaultConfig(),
		ListenAddr:     ":8080",
		MigrationsPath: "./migrations",
		TargetBrand:    "Pump House",
		MergePolicy:    "last-write-wins",
		AdminToken:     "",
		CORSOrigin:     "http://localhost:3000",
	}
}

// Load reads config.yaml from configPath with environment overrides mapped
// through the SALESFEED_ prefix (SALESFEED_DATABASE_HOST, and so on).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("SALESFEED")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("server.cors_origin")
	v.BindEnv("migrations.path")
	v.BindEnv("ingestion.target_brand")
	v.BindEnv("ingestion.merge_policy")
	v.BindEnv("admin.token")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env.
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("server.cors_origin") {
		cfg.CORSOrigin = v.GetString("server.cors_origin")
	}
	if v.IsSet("migrations.path") {
		cfg.MigrationsPath = v.GetString("migrations.path")
	}
	if v.IsSet("ingestion.target_brand") {
		cfg.TargetBrand = v.GetString("ingestion.target_brand")
	}
	if v.IsSet("ingestion.merge_policy") {
		cfg.MergePolicy = v.GetString("ingestion.merge_policy")
	}
	if v.IsSet("admin.token") {
		cfg.AdminToken = v.GetString("admin.token")
	}

	return cfg, nil
}
