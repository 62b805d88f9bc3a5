package config // package config loads application configuration from environment variables

import (
	"net"     // net joins host and port into a listen address
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalizes boolean spellings
	"time"    // time parses durations such as the shutdown timeout

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  None of them is required: the defaults bind the
// server to every interface on port 8414 in development mode.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Host            string        // interface to bind; 0.0.0.0 means all
	Port            string        // HTTP port to listen on
	Debug           bool          // development mode: debug logging and verbose errors
	BodyLimit       string        // maximum request body size accepted (e.g. "1M")
	ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown
}

// Load reads a .env file when one exists and then builds a Config from the
// environment.  Unset or malformed variables fall back to their defaults.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is fine; real env vars still apply

	return Config{
		Env:             envStr("APP_ENV", "dev"),
		Host:            envStr("APP_HOST", "0.0.0.0"),
		Port:            envStr("APP_PORT", "8414"),
		Debug:           envBool("APP_DEBUG", true),
		BodyLimit:       envStr("BODY_LIMIT", "1M"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Addr returns the host:port address the HTTP server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// envStr returns the variable k, or d when it is unset or empty.
func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// envBool accepts the usual spellings of on/off; anything else yields d.
func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return d
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	dur, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return d
	}
	return dur
}
