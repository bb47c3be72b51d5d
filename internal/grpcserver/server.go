package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name clients should query.
const ServiceName = "genji.CharacterService"

// Pinger reports whether the graph store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer publishes graph store reachability over grpc.health.v1.
type HealthServer struct {
	Health   *health.Server
	Store    Pinger
	Interval time.Duration
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewHealthServer(store Pinger, log *zap.Logger) *HealthServer {
	if log == nil {
		log = zap.NewNop()
	}
	hs := &HealthServer{
		Health:   health.NewServer(),
		Store:    store,
		Interval: 15 * time.Second,
		Timeout:  2 * time.Second,
		Log:      log,
	}
	hs.Health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// Register attaches the health service to srv.
func (hs *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, hs.Health)
}

// Probe pings the store once and updates the published status.
func (hs *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, hs.Timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := hs.Store.Ping(ctx); err != nil {
		hs.Log.Warn("graph store unreachable", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.Health.SetServingStatus(ServiceName, status)
	hs.Health.SetServingStatus("", status)
	return status
}

// Run probes on every Interval until ctx is done, then marks every service
// as not serving.
func (hs *HealthServer) Run(ctx context.Context) {
	hs.Probe(ctx)

	ticker := time.NewTicker(hs.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hs.Health.Shutdown()
			return
		case <-ticker.C:
			hs.Probe(ctx)
		}
	}
}
