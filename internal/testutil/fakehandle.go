package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/stratagate/internal/app/system/storehandle"
	"go.mongodb.org/mongo-driver/mongo"
)

// FakeHandle is an in-memory storehandle.Handle. Connect sleeps for Delay
// (or until ctx ends) and then returns the next error from Errs, or nil
// once Errs is exhausted.
type FakeHandle struct {
	Delay time.Duration
	DB    *mongo.Database

	connects atomic.Int32
	healthy  atomic.Bool

	mu        sync.Mutex
	errs      []error
	listeners []storehandle.Listener
	lastOpts  storehandle.Options
}

// NewFakeHandle returns a handle whose connects take delay and fail with
// errs in order.
func NewFakeHandle(delay time.Duration, errs ...error) *FakeHandle {
	return &FakeHandle{Delay: delay, errs: errs}
}

// Connect implements storehandle.Handle.
func (f *FakeHandle) Connect(ctx context.Context, uri string, opts storehandle.Options) error {
	f.connects.Add(1)
	f.healthy.Store(false)

	f.mu.Lock()
	f.lastOpts = opts
	f.mu.Unlock()

	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return &storehandle.ConnectError{Reason: storehandle.ReasonUnreachable, Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.healthy.Store(true)
	f.Emit(storehandle.EventConnected, nil)
	return nil
}

// IsHealthy implements storehandle.Handle.
func (f *FakeHandle) IsHealthy() bool { return f.healthy.Load() }

// Subscribe implements storehandle.Handle.
func (f *FakeHandle) Subscribe(l storehandle.Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

// Database implements storehandle.Handle.
func (f *FakeHandle) Database() *mongo.Database { return f.DB }

// Disconnect implements storehandle.Handle.
func (f *FakeHandle) Disconnect(context.Context) error {
	f.healthy.Store(false)
	return nil
}

// Connects returns how many times Connect was called.
func (f *FakeHandle) Connects() int { return int(f.connects.Load()) }

// LastOptions returns the options passed to the most recent Connect.
func (f *FakeHandle) LastOptions() storehandle.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}

// SetHealthy overrides the health flag without publishing an event.
func (f *FakeHandle) SetHealthy(v bool) { f.healthy.Store(v) }

// Emit publishes a lifecycle event to subscribers, as the driver monitor
// would.
func (f *FakeHandle) Emit(kind storehandle.EventKind, err error) {
	if kind != storehandle.EventConnected {
		f.healthy.Store(false)
	}
	f.mu.Lock()
	ls := append([]storehandle.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(storehandle.Event{Kind: kind, Err: err, At: time.Now()})
	}
}
