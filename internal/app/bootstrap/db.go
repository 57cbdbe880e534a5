// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratagate/internal/app/system/indexes"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	"github.com/dalemusser/stratagate/internal/app/system/supervisor"
	"github.com/dalemusser/stratagate/internal/app/system/timeouts"
	"github.com/dalemusser/stratagate/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ConnectDB builds the store handle and its supervisor.
//
// Unlike a classic WAFFLE app this hook never dials: the connection is
// established on demand by the first gated request, so the process starts
// and serves health routes while MongoDB is down or misconfigured.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := metrics.NewPrometheus(reg)
	if err != nil {
		return DBDeps{}, err
	}

	// Hook timeout must be set before the supervisor reads it.
	timeouts.Configure(timeouts.Config{Query: appCfg.QueryTimeout})

	handle := storehandle.NewMongo()
	sup := supervisor.New(handle, supervisor.Config{
		URI:         appCfg.MongoURI,
		Options:     storeOptions(appCfg),
		HookTimeout: timeouts.Hook(),
		Logger:      logger.Named("supervisor"),
		Metrics:     prom,
		Tracer:      otel.Tracer("github.com/dalemusser/stratagate/supervisor"),
	})
	sup.OnConnected(validators.Hook(logger))
	sup.OnConnected(indexes.Hook(logger))

	logger.Info("store supervisor ready (connects on first request)",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
		zap.Duration("server_selection_timeout", appCfg.ServerSelectionTimeout),
		zap.Duration("retry_delay", appCfg.RetryDelay),
	)

	return DBDeps{
		Handle:     handle,
		Supervisor: sup,
		Registry:   reg,
		Metrics:    prom,
	}, nil
}

// storeOptions maps AppConfig onto the handle's connect options.
func storeOptions(appCfg AppConfig) storehandle.Options {
	return storehandle.Options{
		Database:               appCfg.MongoDatabase,
		AppName:                appCfg.ServiceName,
		ServerSelectionTimeout: appCfg.ServerSelectionTimeout,
		SocketTimeout:          appCfg.SocketTimeout,
		MaxPoolSize:            appCfg.MongoMaxPoolSize,
		RetryDelay:             appCfg.RetryDelay,
		HeartbeatInterval:      appCfg.HeartbeatInterval,
	}
}

// EnsureSchema is a no-op: indexes are created by the supervisor's
// OnConnected hook after every successful connect, since no connection
// exists yet at this point.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return nil
}
