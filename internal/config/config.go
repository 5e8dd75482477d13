package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string

	SigningPrivateKeyBase64  string
	SigningPrivateKeySeedHex string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PolicyBundlePath string
	PolicyBundleID   string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	LogRootURL     string
	LogRootTimeout time.Duration
	LogStrict      bool
}

func FromEnv() Config {
	return Config{
		ListenAddr:               envDefault("TECP_LISTEN_ADDR", ":8080"),
		SigningPrivateKeyBase64:  os.Getenv("TECP_SIGNING_PRIVATE_KEY_BASE64"),
		SigningPrivateKeySeedHex: os.Getenv("TECP_SIGNING_PRIVATE_KEY_SEED_HEX"),
		DatabaseDSN:              os.Getenv("TECP_DATABASE_DSN"),
		RedisAddr:                os.Getenv("TECP_REDIS_ADDR"),
		RedisPassword:            os.Getenv("TECP_REDIS_PASSWORD"),
		RedisDB:                  envInt("TECP_REDIS_DB", 0),
		PolicyBundlePath:         os.Getenv("TECP_POLICY_BUNDLE_PATH"),
		PolicyBundleID:           envDefault("TECP_POLICY_BUNDLE_ID", "default"),
		RateLimitRequests:        envInt("TECP_RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:          envDuration("TECP_RATE_LIMIT_WINDOW", time.Minute),
		LogRootURL:               os.Getenv("TECP_LOG_ROOT_URL"),
		LogRootTimeout:           envDuration("TECP_LOG_ROOT_TIMEOUT", 5*time.Second),
		LogStrict:                envBool("TECP_LOG_STRICT", false),
	}
}

func envDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

func envInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func envBool(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
