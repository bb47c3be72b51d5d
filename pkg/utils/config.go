package utils

import (
	"os"
	"strings"
	"time"
)

const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

type ServerConfig struct {
	HTTPAddr string
	// GRPCAddr is where the gRPC health service listens; empty disables it.
	GRPCAddr       string
	Store          string
	FixturePath    string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	TrustedProxies []string
}

func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{
		HTTPAddr:       envOr("GENJI_HTTP_ADDR", ":8080"),
		GRPCAddr:       ":7070",
		Store:          StoreNeo4j,
		FixturePath:    envOr("GENJI_FIXTURE_PATH", "data/genji.yaml"),
		RequestTimeout: 10 * time.Second,
		LogLevel:       envOr("GENJI_LOG_LEVEL", "info"),
		LogFormat:      envOr("GENJI_LOG_FORMAT", "json"),
		TrustedProxies: []string{"127.0.0.1"},
	}

	// set-but-empty disables the gRPC listener
	if v, ok := os.LookupEnv("GENJI_GRPC_ADDR"); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("GENJI_STORE"))) {
	case StoreMemory:
		cfg.Store = StoreMemory
	case "", StoreNeo4j:
		cfg.Store = StoreNeo4j
	}

	// if parse fails, keep the default
	if raw := strings.TrimSpace(os.Getenv("GENJI_REQUEST_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}

	if raw := strings.TrimSpace(os.Getenv("GENJI_TRUSTED_PROXIES")); raw != "" {
		var proxies []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				proxies = append(proxies, p)
			}
		}
		cfg.TrustedProxies = proxies
	}

	return cfg
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
