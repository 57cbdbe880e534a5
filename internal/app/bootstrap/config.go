// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAGATE"

// Version is overridden at build time with -ldflags "-X".
var Version = "1.0.0"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, gate_timeout, etc.
//   - Environment variables: STRATAGATE_MONGO_URI, STRATAGATE_GATE_TIMEOUT, etc.
//   - Command-line flags: --mongo_uri, --gate_timeout, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI (empty refuses gated requests)"},
	{Name: "mongo_database", Default: "bachelor", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_server_selection_timeout", Default: "5s", Desc: "Bound on each connect attempt"},
	{Name: "mongo_socket_timeout", Default: "45s", Desc: "Socket read/write timeout"},
	{Name: "mongo_heartbeat_interval", Default: "10s", Desc: "Driver heartbeat interval"},
	{Name: "mongo_retry_delay", Default: "1s", Desc: "Minimum spacing between connect attempts after a failure (0 disables)"},

	// Gate and query budgets
	{Name: "gate_timeout", Default: "8s", Desc: "How long a request waits for the store connection"},
	{Name: "query_timeout", Default: "15s", Desc: "Per-query timeout inside handlers"},
	{Name: "reconcile_interval", Default: "15s", Desc: "Interval of the connection reconcile job"},

	// Auth
	{Name: "jwt_secret", Default: "", Desc: "HS256 secret for login tokens"},
	{Name: "jwt_expiry", Default: "24h", Desc: "Login token lifetime"},
	{Name: "api_key", Default: "", Desc: "API key for /api/admin/status (leave empty to disable)"},

	// HTTP surface
	{Name: "cors_origins", Default: "*", Desc: "Comma-separated CORS allow list for /api"},
	{Name: "assets_path", Default: "frontend/dist/assets", Desc: "Directory served under /assets"},

	// Tracing
	{Name: "tracing_enabled", Default: false, Desc: "Export OpenTelemetry traces over OTLP"},
	{Name: "tracing_protocol", Default: "grpc", Desc: "OTLP protocol: 'grpc' or 'http/protobuf'"},
	{Name: "tracing_sample_ratio", Default: "1.0", Desc: "Trace sampling ratio in [0,1]"},
	{Name: "service_name", Default: "stratagate", Desc: "Service name reported to the tracer"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Version: Version,

		MongoURI:               appValues.String("mongo_uri"),
		MongoDatabase:          appValues.String("mongo_database"),
		MongoMaxPoolSize:       uint64(appValues.Int("mongo_max_pool_size")),
		ServerSelectionTimeout: appValues.Duration("mongo_server_selection_timeout", 5*time.Second),
		SocketTimeout:          appValues.Duration("mongo_socket_timeout", 45*time.Second),
		HeartbeatInterval:      appValues.Duration("mongo_heartbeat_interval", 10*time.Second),
		RetryDelay:             appValues.Duration("mongo_retry_delay", time.Second),

		GateTimeout:       appValues.Duration("gate_timeout", 8*time.Second),
		QueryTimeout:      appValues.Duration("query_timeout", 15*time.Second),
		ReconcileInterval: appValues.Duration("reconcile_interval", 15*time.Second),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 24*time.Hour),
		APIKey:    appValues.String("api_key"),

		CORSOrigins: appValues.String("cors_origins"),
		AssetsPath:  appValues.String("assets_path"),

		TracingEnabled:     appValues.Bool("tracing_enabled"),
		TracingProtocol:    appValues.String("tracing_protocol"),
		TracingSampleRatio: appValues.String("tracing_sample_ratio"),
		ServiceName:        appValues.String("service_name"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A missing or invalid MongoDB URI is only logged: the process still
// serves health and root routes and the gate reports Misconfigured.
// Non-positive budgets abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch {
	case appCfg.MongoURI == "":
		logger.Warn("mongo_uri is not set; gated requests will answer 500 Misconfigured")
	default:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Warn("invalid MongoDB URI; gated requests will answer 500 Misconfigured", zap.Error(err))
		}
	}

	if appCfg.MongoMaxPoolSize == 0 {
		return fmt.Errorf("mongo_max_pool_size must be positive")
	}
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"mongo_server_selection_timeout", appCfg.ServerSelectionTimeout},
		{"mongo_socket_timeout", appCfg.SocketTimeout},
		{"mongo_heartbeat_interval", appCfg.HeartbeatInterval},
		{"gate_timeout", appCfg.GateTimeout},
		{"query_timeout", appCfg.QueryTimeout},
		{"reconcile_interval", appCfg.ReconcileInterval},
		{"jwt_expiry", appCfg.JWTExpiry},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %v", p.name, p.d)
		}
	}
	if appCfg.RetryDelay < 0 {
		return fmt.Errorf("mongo_retry_delay must not be negative, got %v", appCfg.RetryDelay)
	}

	if appCfg.JWTSecret == "" {
		logger.Warn("jwt_secret is not set; /api/auth/login will answer 500")
	}
	return nil
}
