// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// DBDeps holds the store connection and its telemetry.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown. Nothing in it has dialed yet: the first gated
// request does.
type DBDeps struct {
	// Handle is the physical MongoDB client wrapper.
	Handle *storehandle.Mongo

	// Supervisor owns every connect and is the only way handlers reach
	// the database.
	Supervisor *supervisor.Supervisor

	// Prometheus registry served at /metrics and the gateway collector
	// registered on it.
	Registry *prometheus.Registry
	Metrics  *metrics.Prometheus
}
