package grpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/test/bufconn"
)

// dialFullServer starts NewGRPCServer on an in-memory listener and returns a connection to it.
func dialFullServer(t *testing.T, c *fakeClient) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(c)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///catalog",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewGRPCServer_Health(t *testing.T) {
	health := healthpb.NewHealthClient(dialFullServer(t, &fakeClient{}))

	for _, service := range []string{"", ServiceName} {
		resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) failed: %v", service, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %v, want SERVING", service, resp.GetStatus())
		}
	}
}

func TestNewGRPCServer_ReflectionListsCatalog(t *testing.T) {
	stream, err := reflectionpb.NewServerReflectionClient(dialFullServer(t, &fakeClient{})).
		ServerReflectionInfo(context.Background())
	if err != nil {
		t.Fatalf("Failed to open reflection stream: %v", err)
	}
	if err := stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{},
	}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	resp, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}

	names := map[string]bool{}
	for _, svc := range resp.GetListServicesResponse().GetService() {
		names[svc.GetName()] = true
	}
	for _, want := range []string{ServiceName, healthpb.Health_ServiceDesc.ServiceName} {
		if !names[want] {
			t.Errorf("Reflection does not list %s, got %v", want, names)
		}
	}
}

func TestNewGRPCServer_CatalogBehindInterceptors(t *testing.T) {
	catalog := NewCatalogClient(dialFullServer(t, &fakeClient{getSubjectFunc: subjectsByID}))

	resp, err := catalog.Call(context.Background(), MethodGetSubject, mustStruct(t, map[string]any{"subject_id": 400602}))
	if err != nil {
		t.Fatalf("GetSubject failed: %v", err)
	}
	if name := resp.GetFields()["subject"].GetStructValue().GetFields()["name"].GetStringValue(); name != "Frieren" {
		t.Errorf("Unexpected subject name %q", name)
	}
}

func TestNewGRPCServer_SharesMetricsAcrossServers(t *testing.T) {
	first, second := NewGRPCServer(&fakeClient{}), NewGRPCServer(&fakeClient{})
	if first == nil || second == nil {
		t.Fatal("Expected both servers to be built")
	}
	if serverMetrics() != serverMetrics() {
		t.Error("Expected a single set of server metrics")
	}
}
