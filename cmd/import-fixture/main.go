package main

import (
	"context"
	"flag"
	"log"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"genjigraph/internal/fixture"
	"genjigraph/pkg/database"
	"genjigraph/pkg/logging"
)

func main() {
	var (
		in       = flag.String("in", "data/genji.yaml", "input YAML graph")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	g, err := fixture.Load(*in)
	if err != nil {
		logger.Fatal("load fixture failed", zap.Error(err))
	}

	cfg := database.DefaultConfig()
	driver := database.MustOpen(ctx, cfg)
	defer driver.Close(context.Background())

	if err := database.Migrate(ctx, driver, cfg); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	n, err := fixture.Import(ctx, driver, cfg.Database, g)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	logger.Info("imported graph",
		zap.String("in", *in),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Int("statements", n),
	)
}
