package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestNewServerRegistersHealthAndReflection(t *testing.T) {
	srv, _ := NewServer(zap.NewNop())
	defer srv.Stop()

	info := srv.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
}

func TestHealthFollowsLifecycle(t *testing.T) {
	srv, healthSrv := NewServer(zap.NewNop())
	defer srv.Stop()

	resp, err := healthSrv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	healthSrv.Shutdown()
	resp, err = healthSrv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
