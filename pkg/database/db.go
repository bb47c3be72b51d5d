package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Config struct {
	URI      string
	Username string
	Password string
	// Database is the Neo4j database name; empty means the server default.
	Database string
}

func DefaultConfig() Config {
	cfg := Config{
		URI:      os.Getenv("NEO4J_URI"),
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}
	if cfg.URI == "" {
		cfg.URI = "neo4j://localhost:7687"
	}
	if cfg.Username == "" {
		cfg.Username = "neo4j"
	}
	return cfg
}

// Open creates the process-wide driver and verifies the server is reachable.
// The caller owns the driver and must Close it at shutdown.
func Open(ctx context.Context, cfg Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return driver, nil
}

func MustOpen(ctx context.Context, cfg Config) neo4j.DriverWithContext {
	driver, err := Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open graph db: %v", err)
	}
	return driver
}
