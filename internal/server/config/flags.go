package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-e string   storage driver: postgres, sqlite, redis, mongo, memory
//	-d string   database DSN (PostgreSQL or SQLite)
//	-r string   Redis URL
//	-m string   MongoDB URI
//	-s string   secret key for token sealing and login state
//	-k string   Kite API key
//	-x string   Kite API secret
//	-f string   frontend URL to redirect to after login
//	-o string   comma-separated CORS allowed origins
//	-t int      access token validity, minutes
//	-u int      upstream call timeout, seconds
//	-l string   log level
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values; unset duration flags leave the field alone.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-e", "-d", "-r", "-m", "-s", "-k", "-x", "-f", "-o", "-t", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StorageDriver, "e", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongodb URI")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.KiteAPIKey, "k", config.KiteAPIKey, "kite api key")
	fs.StringVar(&config.KiteAPISecret, "x", config.KiteAPISecret, "kite api secret")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend URL")

	origins := fs.String("o", "", "comma-separated allowed origins")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	upstreamTimeout := fs.Int("u", int(config.UpstreamTimeout.Seconds()), "upstream_timeout (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations are only replaced when given, so sub-minute values from
	// JSON survive a flag-less run
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			config.AllowedOrigins = splitList(*origins)
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "u":
			config.UpstreamTimeout = time.Duration(*upstreamTimeout) * time.Second
		}
	})
}
