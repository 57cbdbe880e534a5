// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through store setup, startup work, HTTP handler construction,
// and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratagate",   // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // warn on a bad URI, reject bad budgets
	ConnectDB:      ConnectDB,      // build store handle + supervisor (no dial)
	EnsureSchema:   EnsureSchema,   // indexes run on every connect instead
	Startup:        Startup,        // tracing + reconcile task
	BuildHandler:   BuildHandler,   // router, gate and feature routes
	Shutdown:       Shutdown,       // stop tasks, close store, flush traces
}
