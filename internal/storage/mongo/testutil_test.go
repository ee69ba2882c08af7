package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// setupTestDB starts a MongoDB container and returns a handle on a fresh
// database. Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start mongo container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	client, err := Connect(ctx, Options{
		URI:            uri,
		AppName:        "cryptolab-test",
		ConnectTimeout: 30 * time.Second,
		QueryTimeout:   10 * time.Second,
	})
	require.NoError(t, err, "failed to connect")

	cleanup := func() {
		_ = client.Close(ctx)
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return client.DB("testdb"), cleanup
}

// insertDocs writes raw documents into a collection.
func insertDocs(t *testing.T, db *DB, coll string, docs ...any) {
	t.Helper()
	_, err := db.coll(coll).InsertMany(context.Background(), docs)
	require.NoError(t, err, "failed to seed %s", coll)
}
