// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratagate/internal/app/system/tasks"
	"github.com/dalemusser/stratagate/internal/app/system/tracing"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after ConnectDB and EnsureSchema, before the HTTP
// handler is built. It installs the tracer provider and starts the
// background task runner. It does not connect to MongoDB.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	shutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:     appCfg.TracingEnabled,
		ServiceName: appCfg.ServiceName,
		Version:     appCfg.Version,
		Protocol:    appCfg.TracingProtocol,
		SampleRatio: appCfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", zap.Error(err))
		return err
	}
	tracingShutdown = shutdown

	startTaskRunner(deps, appCfg, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// tracingShutdown flushes spans on shutdown.
var tracingShutdown tracing.ShutdownFunc

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)
	taskRunner.Register(tasks.StoreReconcileJob(deps.Supervisor, appCfg.ReconcileInterval, logger))
	taskRunner.Start()
}
