package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/stock-scanner/pkg/logger"
)

// ServiceName is the health service name reported for the catalog
const ServiceName = "stockscanner.Catalog"

// Pinger reports whether the catalog store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer mirrors catalog store reachability onto the standard gRPC
// health protocol
type HealthServer struct {
	health   *health.Server
	store    Pinger
	interval time.Duration
	timeout  time.Duration
}

// NewHealthServer creates a health server probing store every interval
func NewHealthServer(store Pinger, interval time.Duration) *HealthServer {
	hs := &HealthServer{
		health:   health.NewServer(),
		store:    store,
		interval: interval,
		timeout:  2 * time.Second,
	}
	hs.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// NewServer builds the gRPC server with instrumentation and the health service
// registered
func NewServer(hs *HealthServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			TracingInterceptor,
			MetricsInterceptor,
			LoggingInterceptor,
		),
	)
	healthpb.RegisterHealthServer(srv, hs.health)
	reflection.Register(srv)
	return srv
}

// Check probes the store once and publishes the result
func (hs *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, hs.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := hs.store.Ping(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Catalog store health check failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.health.SetServingStatus(ServiceName, status)
	hs.health.SetServingStatus("", status)
	return status
}

// Run probes the store until ctx is done, then marks every service as not
// serving
func (hs *HealthServer) Run(ctx context.Context) {
	hs.Check(ctx)

	ticker := time.NewTicker(hs.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.health.Shutdown()
			return
		case <-ticker.C:
			hs.Check(ctx)
		}
	}
}
