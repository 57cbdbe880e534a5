// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown is invoked after the HTTP server has drained. It stops the
// task runner, closes the supervisor (cancelling any in-flight connect and
// disconnecting the handle) and flushes pending spans.
//
// Errors are logged and the first one is returned; every step still runs.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if taskRunner != nil {
		logger.Info("stopping background task runner")
		if err := taskRunner.Stop(ctx); err != nil {
			logger.Warn("background task runner did not stop cleanly", zap.Error(err))
			keep(err)
		}
	}

	if deps.Supervisor != nil {
		logger.Info("closing store supervisor")
		if err := deps.Supervisor.Close(ctx); err != nil {
			logger.Error("store disconnect failed", zap.Error(err))
			keep(err)
		}
	}

	if tracingShutdown != nil {
		if err := tracingShutdown(ctx); err != nil {
			logger.Warn("tracer flush failed", zap.Error(err))
			keep(err)
		}
	}

	return firstErr
}
