// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// HTTP listener, TLS, logging and request limits; everything the gateway
// itself needs lives here.
type AppConfig struct {
	// Version is reported by GET / and the admin status endpoint.
	Version string

	// MongoDB connection configuration. An empty or invalid MongoURI does
	// not stop the process; gated requests answer 500 Misconfigured.
	MongoURI               string
	MongoDatabase          string
	MongoMaxPoolSize       uint64
	ServerSelectionTimeout time.Duration // bounds each physical connect attempt
	SocketTimeout          time.Duration
	HeartbeatInterval      time.Duration
	RetryDelay             time.Duration // minimum spacing between attempts after a failure

	// Request gate and query budgets
	GateTimeout  time.Duration // how long a request waits for the connection
	QueryTimeout time.Duration // per-query budget inside handlers

	// Reconcile interval for the background health check (never dials)
	ReconcileInterval time.Duration

	// JWT configuration for /api/auth. Login answers 500 when JWTSecret is empty.
	JWTSecret string
	JWTExpiry time.Duration

	// APIKey protects /api/admin/status. Leave empty to disable the endpoint.
	APIKey string

	// CORSOrigins is a comma-separated allow list; "*" allows any origin.
	CORSOrigins string

	// AssetsPath is the directory served under /assets.
	AssetsPath string

	// Tracing (OTLP exporter endpoint comes from OTEL_EXPORTER_OTLP_*)
	TracingEnabled     bool
	TracingProtocol    string
	TracingSampleRatio string
	ServiceName        string
}
