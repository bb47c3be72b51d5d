package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"genjigraph/internal/character"
	"genjigraph/internal/fixture"
	"genjigraph/internal/grpcserver"
	"genjigraph/internal/middleware"
	"genjigraph/pkg/database"
	"genjigraph/pkg/logging"
	"genjigraph/pkg/utils"
)

func main() {
	cfg := utils.LoadServerConfig()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open graph store failed", zap.Error(err))
	}
	defer closeStore()

	repo := character.NewRepo(store, logger.Named("character"))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger.Named("http")), middleware.Metrics())

	// Optional: avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies(cfg.TrustedProxies)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello~"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store})
	})

	router.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repo.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"store":       cfg.Store,
				"store_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "store": cfg.Store})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	charHandler := character.NewHandler(repo, cfg.RequestTimeout, logger.Named("character"))
	charHandler.RegisterRoutes(router.Group("/characters"))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		grpcSrv = grpc.NewServer()
		healthSrv := grpcserver.NewHealthServer(repo, logger.Named("grpc"))
		healthSrv.Register(grpcSrv)

		g.Go(func() error {
			healthSrv.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return serveGRPC(grpcSrv, cfg.GRPCAddr, logger)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", zap.Error(err))
		}
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		closeStore()
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("servers stopped")
}

// serveGRPC listens on addr and serves until srv is stopped. Listen failures
// are returned so the caller can shut down in order.
func serveGRPC(srv *grpc.Server, addr string, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	logger.Info("gRPC health server listening", zap.String("addr", listener.Addr().String()))
	if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// openStore returns the configured graph store and a function releasing it.
func openStore(ctx context.Context, cfg utils.ServerConfig, logger *zap.Logger) (character.Store, func(), error) {
	switch cfg.Store {
	case utils.StoreMemory:
		g, err := fixture.Load(cfg.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := character.NewMemoryStore(g)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using in-memory graph",
			zap.String("fixture", cfg.FixturePath),
			zap.Int("nodes", len(g.Nodes)),
			zap.Int("edges", len(g.Edges)),
		)
		return store, func() {}, nil
	default:
		dbCfg := database.DefaultConfig()
		driver, err := database.Open(ctx, dbCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to neo4j", zap.String("uri", dbCfg.URI), zap.String("database", dbCfg.Database))
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := driver.Close(closeCtx); err != nil {
				logger.Error("neo4j close error", zap.Error(err))
			}
		}
		return character.NewNeo4jStore(driver, dbCfg.Database), closeFn, nil
	}
}
