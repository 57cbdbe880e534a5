// Package testutil holds shared test fixtures: a live MongoDB database per
// test, a scriptable store handle, and HTTP request helpers.
package testutil

import (
	"context"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/indexes"
	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Live-database settings. STRATAGATE_TEST_MONGO_URI overrides the URI.
const (
	TestDBURI  = "mongodb://localhost:27017"
	TestDBName = "stratagate_test"

	uriEnv = "STRATAGATE_TEST_MONGO_URI"
)

// MongoDB caps database names at 63 bytes.
const maxDBName = 63

var unsafeDBChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// live is one store handle shared by every test in the binary. It is
// connected through the same code path the server uses.
var live struct {
	once   sync.Once
	handle *storehandle.Mongo
	err    error
}

func liveHandle() (*storehandle.Mongo, error) {
	live.once.Do(func() {
		uri := TestDBURI
		if v := strings.TrimSpace(os.Getenv(uriEnv)); v != "" {
			uri = v
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h := storehandle.NewMongo()
		live.err = h.Connect(ctx, uri, storehandle.Options{
			Database:               TestDBName,
			AppName:                "stratagate-tests",
			ServerSelectionTimeout: 2 * time.Second,
			MaxPoolSize:            50,
		})
		live.handle = h
	})
	return live.handle, live.err
}

// SetupTestDB returns an empty database named after the test with the
// production indexes applied. The database is dropped on cleanup. The test
// is skipped in -short mode or when no server answers.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB-backed test in -short mode")
	}
	h, err := liveHandle()
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	db := h.Client().Database(DBNameFor(t.Name()))
	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes on %s: %v", db.Name(), err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("cleanup: drop %s: %v", db.Name(), err)
		}
	})
	return db
}

// DBNameFor maps a test name to a legal, bounded database name.
func DBNameFor(testName string) string {
	name := TestDBName + "_" + unsafeDBChars.ReplaceAllString(testName, "_")
	if len(name) > maxDBName {
		name = name[:maxDBName]
	}
	return name
}

// TestContext bounds a block of test store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// StaticProvider serves a fixed database. A nil DB behaves like a
// disconnected store.
type StaticProvider struct {
	DB *mongo.Database
}

// Database returns p.DB.
func (p StaticProvider) Database() *mongo.Database { return p.DB }
