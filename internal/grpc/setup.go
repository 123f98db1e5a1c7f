package grpc

import (
	"sync"

	"github.com/Belphemur/BangumiBridge/internal/client"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// serverMetrics is shared by every server of the process; the collectors are registered once.
var serverMetrics = sync.OnceValue(func() *grpcprom.ServerMetrics {
	m := grpcprom.NewServerMetrics(grpcprom.WithServerHandlingTimeHistogram())
	prometheus.MustRegister(m)
	return m
})

// NewGRPCServer returns a server exposing the catalog service over c, together with
// the standard health and reflection services. Every call is counted and timed.
func NewGRPCServer(c client.Client) *grpc.Server {
	m := serverMetrics()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(m.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(m.StreamServerInterceptor()),
	)
	RegisterCatalogServer(srv, NewServer(c))

	// The empty name reports overall health.
	status := health.NewServer()
	for _, name := range []string{"", ServiceName} {
		status.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(srv, status)

	reflection.Register(srv)

	// Zero-valued series for every method show up before the first call.
	m.InitializeMetrics(srv)
	return srv
}
