// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler is implemented by the connection supervisor.
type Reconciler interface {
	Reconcile() bool
}

// StoreReconcileJob periodically compares the supervisor's state with the
// store handle's own health flag. It catches lost connections whose driver
// events never arrived. It never dials; reconnecting is left to the next
// request.
func StoreReconcileJob(rec Reconciler, interval time.Duration, logger *zap.Logger) Job {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return Job{
		Name:        "store-reconcile",
		Interval:    interval,
		SkipInitial: true,
		Run: func(ctx context.Context) error {
			if rec.Reconcile() {
				logger.Info("store connection demoted by reconcile")
			}
			return nil
		},
	}
}
