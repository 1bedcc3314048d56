package mongodb

import (
	"context"
	"log/slog"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// DefaultTestImage is the MongoDB image used by integration tests.
const DefaultTestImage = "mongo:7.0"

// TestContainer holds a MongoDB test container instance.
type TestContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
	client    *Client
}

// SetupTestContainer creates a MongoDB container for testing and registers
// its termination with t.Cleanup.
func SetupTestContainer(t testing.TB) *TestContainer {
	t.Helper()

	ctx := context.Background()

	container, err := mongodb.Run(ctx, DefaultTestImage)
	if err != nil {
		t.Fatalf("failed to start MongoDB container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	tc := &TestContainer{
		Container: container,
		URI:       uri,
	}

	t.Cleanup(func() {
		tc.Cleanup(t)
	})

	return tc
}

// SetupTestContainerWithClient creates a MongoDB container and connects a client.
func SetupTestContainerWithClient(t testing.TB, database string, opts ...ClientOption) (*TestContainer, *Client) {
	t.Helper()

	tc := SetupTestContainer(t)
	tc.client = tc.NewTestClient(t, database, opts...)

	return tc, tc.client
}

// Cleanup closes the client and terminates the test container.
func (tc *TestContainer) Cleanup(t testing.TB) {
	t.Helper()

	if tc.client != nil {
		if err := tc.client.Close(context.Background()); err != nil {
			t.Logf("warning: failed to close client: %v", err)
		}
		tc.client = nil
	}

	if tc.Container != nil {
		if err := tc.Container.Terminate(context.Background()); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	}
}

// NewTestClient creates a new client connected to the test container.
func (tc *TestContainer) NewTestClient(t testing.TB, database string, opts ...ClientOption) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.URI = tc.URI
	cfg.Database = database
	cfg.AppName = "notifydal-test"

	client, err := New(context.Background(), cfg, slog.Default(), opts...)
	if err != nil {
		t.Fatalf("failed to create MongoDB client: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	return client
}

// RunWithTestContainer is a helper for running tests with a MongoDB container.
func RunWithTestContainer(t *testing.T, database string, fn func(t *testing.T, client *Client)) {
	t.Helper()

	_, client := SetupTestContainerWithClient(t, database)
	fn(t, client)
}
