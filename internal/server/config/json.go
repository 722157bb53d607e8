package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/kitekeeper/internal/flagx"
	"github.com/dmitrijs2005/kitekeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "24h" and integer nanoseconds.
//
// Only keys present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP      string          `json:"endpoint_addr_http"`
	StorageDriver         string          `json:"storage_driver"`
	DatabaseDSN           string          `json:"database_dsn"`
	RedisURL              string          `json:"redis_url"`
	RedisKeyPrefix        string          `json:"redis_key_prefix"`
	MongoURI              string          `json:"mongo_uri"`
	MongoDatabase         string          `json:"mongo_database"`
	SecretKey             string          `json:"secret_key"`
	KiteAPIKey            string          `json:"kite_api_key"`
	KiteAPISecret         string          `json:"kite_api_secret"`
	KiteLoginURL          string          `json:"kite_login_url"`
	KiteAPIURL            string          `json:"kite_api_url"`
	FrontendURL           string          `json:"frontend_url"`
	AllowedOrigins        []string        `json:"allowed_origins"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	StateValidityDuration *timex.Duration `json:"state_validity_duration"`
	UpstreamTimeout       *timex.Duration `json:"upstream_timeout"`
	LogFormat             string          `json:"log_format"`
	LogLevel              string          `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The path comes from -c/-config or KITEKEEPER_CONFIG
// (see flagx.ConfigFile); if neither is set nothing is loaded.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	if err := applyJSONFile(config, jsonConfigFile); err != nil {
		panic(err)
	}
}

func applyJSONFile(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.RedisKeyPrefix, c.RedisKeyPrefix)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.KiteAPIKey, c.KiteAPIKey)
	setString(&config.KiteAPISecret, c.KiteAPISecret)
	setString(&config.KiteLoginURL, c.KiteLoginURL)
	setString(&config.KiteAPIURL, c.KiteAPIURL)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StateValidityDuration != nil {
		config.StateValidityDuration = c.StateValidityDuration.Duration
	}
	if c.UpstreamTimeout != nil {
		config.UpstreamTimeout = c.UpstreamTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
