package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"github.com/dalemusser/stratagate/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAppConfig(uri string) AppConfig {
	return AppConfig{
		Version:                "test",
		MongoURI:               uri,
		MongoDatabase:          "bachelor",
		MongoMaxPoolSize:       10,
		ServerSelectionTimeout: time.Second,
		SocketTimeout:          time.Second,
		HeartbeatInterval:      time.Second,
		GateTimeout:            500 * time.Millisecond,
		QueryTimeout:           time.Second,
		ReconcileInterval:      time.Second,
		JWTSecret:              "secret",
		JWTExpiry:              time.Hour,
		APIKey:                 "admin-key",
		CORSOrigins:            "*",
		AssetsPath:             "testdata",
		ServiceName:            "stratagate",
	}
}

// buildWith wires the real router around a fake store handle.
func buildWith(t *testing.T, appCfg AppConfig, h storehandle.Handle) http.Handler {
	t.Helper()
	opts := storeOptions(appCfg)
	opts.RetryDelay = 0
	sup := supervisor.New(h, supervisor.Config{URI: appCfg.MongoURI, Options: opts})
	t.Cleanup(func() { _ = sup.Close(context.Background()) })

	handler, err := BuildHandler(&config.CoreConfig{Env: "dev"}, appCfg, DBDeps{Supervisor: sup}, zap.NewNop())
	require.NoError(t, err)
	return handler
}

func serve(h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBuildHandler_UngatedRoutesNeverDial(t *testing.T) {
	fake := testutil.NewFakeHandle(0)
	h := buildWith(t, testAppConfig("mongodb://localhost:27017"), fake)

	rec := serve(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bachelor Point API is running", decode(t, rec)["message"])

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/api/health").Code)

	assert.Equal(t, 0, fake.Connects())
}

func TestBuildHandler_MisconfiguredURI(t *testing.T) {
	fake := testutil.NewFakeHandle(0)
	h := buildWith(t, testAppConfig(""), fake)

	rec := serve(h, http.MethodGet, "/api/shops")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Misconfigured", decode(t, rec)["reason"])
	assert.Equal(t, 0, fake.Connects())

	// Ungated routes still answer.
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/livez").Code)
}

func TestBuildHandler_UnreachableStore(t *testing.T) {
	refused := &storehandle.ConnectError{Reason: storehandle.ReasonUnreachable, Err: errors.New("connection refused")}
	fake := testutil.NewFakeHandle(0, refused)
	appCfg := testAppConfig("mongodb://localhost:27017")
	appCfg.RetryDelay = 2 * time.Second
	h := buildWith(t, appCfg, fake)

	rec := serve(h, http.MethodGet, "/api/maids")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Unreachable", decode(t, rec)["reason"])
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, fake.Connects())
}

func TestBuildHandler_GateTimeout(t *testing.T) {
	fake := testutil.NewFakeHandle(2 * time.Second)
	appCfg := testAppConfig("mongodb://localhost:27017")
	appCfg.GateTimeout = 50 * time.Millisecond
	h := buildWith(t, appCfg, fake)

	rec := serve(h, http.MethodGet, "/api/properties")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Timeout", decode(t, rec)["reason"])
}

func TestBuildHandler_ConnectedWithoutDatabase(t *testing.T) {
	// The fake connects but exposes no database, so the handler itself
	// reports the store as unavailable after the gate lets it through.
	fake := testutil.NewFakeHandle(0)
	h := buildWith(t, testAppConfig("mongodb://localhost:27017"), fake)

	rec := serve(h, http.MethodGet, "/api/shops")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database connection timeout")
	assert.Equal(t, 1, fake.Connects())

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/health").Code)
}

func TestBuildHandler_AdminStatusRequiresKey(t *testing.T) {
	h := buildWith(t, testAppConfig("mongodb://localhost:27017"), testutil.NewFakeHandle(0))

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/api/admin/status").Code)

	rec := serve(h, http.MethodGet, "/api/admin/status", "Authorization", "Bearer admin-key")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "test", body["version"])
}

func TestBuildHandler_UnknownRoute(t *testing.T) {
	h := buildWith(t, testAppConfig("mongodb://localhost:27017"), testutil.NewFakeHandle(0))

	rec := serve(h, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildHandler_CORSPreflight(t *testing.T) {
	fake := testutil.NewFakeHandle(0)
	h := buildWith(t, testAppConfig(""), fake)

	rec := serve(h, http.MethodOptions, "/api/shops",
		"Origin", "http://example.com",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidateConfig(t *testing.T) {
	log := zap.NewNop()

	t.Run("missing uri only warns", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(nil, testAppConfig(""), log))
	})

	t.Run("malformed uri only warns", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(nil, testAppConfig("not-a-uri"), log))
	})

	t.Run("non-positive gate timeout", func(t *testing.T) {
		cfg := testAppConfig("mongodb://localhost:27017")
		cfg.GateTimeout = 0
		err := ValidateConfig(nil, cfg, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gate_timeout")
	})

	t.Run("zero pool size", func(t *testing.T) {
		cfg := testAppConfig("mongodb://localhost:27017")
		cfg.MongoMaxPoolSize = 0
		assert.Error(t, ValidateConfig(nil, cfg, log))
	})

	t.Run("negative retry delay", func(t *testing.T) {
		cfg := testAppConfig("mongodb://localhost:27017")
		cfg.RetryDelay = -time.Second
		assert.Error(t, ValidateConfig(nil, cfg, log))
	})
}

func TestStoreOptions(t *testing.T) {
	cfg := testAppConfig("mongodb://localhost:27017")
	cfg.RetryDelay = 3 * time.Second
	opts := storeOptions(cfg)

	assert.Equal(t, "bachelor", opts.Database)
	assert.Equal(t, "stratagate", opts.AppName)
	assert.EqualValues(t, 10, opts.MaxPoolSize)
	assert.Equal(t, 3*time.Second, opts.RetryDelay)
}
