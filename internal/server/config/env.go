package config

import "strings"

// Environment variables read by parseEnv. KITE_API_KEY, KITE_API_SECRET and
// DATABASE_URL keep the names used by existing deployments.
const (
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvStorageDriver  = "STORAGE_DRIVER"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvRedisURL       = "REDIS_URL"
	EnvMongoURI       = "MONGO_URI"
	EnvMongoDatabase  = "MONGO_DATABASE"
	EnvSecretKey      = "SECRET_KEY"
	EnvKiteAPIKey     = "KITE_API_KEY"
	EnvKiteAPISecret  = "KITE_API_SECRET"
	EnvFrontendURL    = "FRONTEND_URL"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLogLevel       = "LOG_LEVEL"
)

// parseEnv overlays non-empty environment variables. getenv is os.Getenv
// outside tests.
func parseEnv(config *Config, getenv func(string) string) {
	setString(&config.EndpointAddrHTTP, getenv(EnvHTTPAddr))
	setString(&config.StorageDriver, getenv(EnvStorageDriver))
	setString(&config.RedisURL, getenv(EnvRedisURL))
	setString(&config.MongoURI, getenv(EnvMongoURI))
	setString(&config.MongoDatabase, getenv(EnvMongoDatabase))
	setString(&config.SecretKey, getenv(EnvSecretKey))
	setString(&config.KiteAPIKey, getenv(EnvKiteAPIKey))
	setString(&config.KiteAPISecret, getenv(EnvKiteAPISecret))
	setString(&config.FrontendURL, getenv(EnvFrontendURL))
	setString(&config.LogFormat, getenv(EnvLogFormat))
	setString(&config.LogLevel, getenv(EnvLogLevel))

	if dsn := getenv(EnvDatabaseURL); dsn != "" {
		config.DatabaseDSN = dsn
		if getenv(EnvStorageDriver) == "" && isSQLiteDSN(dsn) {
			config.StorageDriver = DriverSQLite
		}
	}

	if origins := getenv(EnvAllowedOrigins); origins != "" {
		config.AllowedOrigins = splitList(origins)
	}
}

// isSQLiteDSN recognises "sqlite:" URLs and bare *.db files.
func isSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite:") || strings.HasSuffix(dsn, ".db") || strings.HasSuffix(dsn, ".sqlite")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
