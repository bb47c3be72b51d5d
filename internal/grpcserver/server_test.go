package grpcserver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePinger struct {
	down atomic.Bool
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func check(t *testing.T, hs *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServer_Probe(t *testing.T) {
	store := &fakePinger{}
	hs := NewHealthServer(store, nil)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ServiceName))

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hs.Probe(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, hs, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, hs, ""))

	store.down.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, hs.Probe(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ServiceName))
}

func TestHealthServer_RunStopsOnCancel(t *testing.T) {
	hs := NewHealthServer(&fakePinger{}, nil)
	hs.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hs.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return check(t, hs, ServiceName) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs, ServiceName))
}
