package storehandle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/description"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

var errSuperseded = errors.New("connect superseded by a newer attempt")

// Mongo is the Handle backed by the official MongoDB driver.
//
// Every Connect starts a new generation. Monitor callbacks carry the
// generation they were registered with and are dropped once a newer
// session exists, so a client being torn down can never flip the health
// of its replacement.
type Mongo struct {
	gen         atomic.Uint64
	established atomic.Uint64
	healthy     atomic.Bool
	servers     atomic.Int32

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database

	lmu       sync.RWMutex
	listeners []Listener

	now func() time.Time
}

// NewMongo returns an unconnected handle.
func NewMongo() *Mongo {
	return &Mongo{now: time.Now}
}

// Subscribe implements Handle.
func (m *Mongo) Subscribe(l Listener) {
	if l == nil {
		return
	}
	m.lmu.Lock()
	m.listeners = append(m.listeners, l)
	m.lmu.Unlock()
}

func (m *Mongo) publish(kind EventKind, err error) {
	m.lmu.RLock()
	ls := append([]Listener(nil), m.listeners...)
	m.lmu.RUnlock()
	ev := Event{Kind: kind, Err: err, At: m.now()}
	for _, l := range ls {
		l(ev)
	}
}

// IsHealthy implements Handle.
func (m *Mongo) IsHealthy() bool {
	return m.healthy.Load()
}

// Database implements Handle.
func (m *Mongo) Database() *mongo.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Client returns the underlying driver client, or nil.
func (m *Mongo) Client() *mongo.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Connect implements Handle.
func (m *Mongo) Connect(ctx context.Context, uri string, opts Options) error {
	opts = opts.withDefaults()

	if _, err := connstring.ParseAndValidate(uri); err != nil {
		return &ConnectError{Reason: ReasonMalformed, Err: err}
	}

	gen := m.gen.Add(1)
	m.healthy.Store(false)
	m.closeCurrent(ctx)

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout).
		SetSocketTimeout(opts.SocketTimeout).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetHeartbeatInterval(opts.HeartbeatInterval).
		SetServerMonitor(m.monitor(gen))
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return classify(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return classify(err)
	}

	m.mu.Lock()
	if m.gen.Load() != gen {
		m.mu.Unlock()
		_ = client.Disconnect(context.Background())
		return &ConnectError{Reason: ReasonUnreachable, Err: errSuperseded}
	}
	m.client = client
	m.db = client.Database(opts.Database)
	m.mu.Unlock()

	m.established.Store(gen)
	m.healthy.Store(true)
	m.publish(EventConnected, nil)
	return nil
}

// Disconnect implements Handle. It does not publish an event: the caller
// initiated the transition and already knows about it.
func (m *Mongo) Disconnect(ctx context.Context) error {
	m.gen.Add(1)
	m.healthy.Store(false)
	return m.closeCurrent(ctx)
}

func (m *Mongo) closeCurrent(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.db = nil
	m.mu.Unlock()
	m.established.Store(0)
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (m *Mongo) current(gen uint64) bool {
	return m.established.Load() == gen && m.gen.Load() == gen
}

// monitor builds the driver server monitor for one generation.
func (m *Mongo) monitor(gen uint64) *event.ServerMonitor {
	return &event.ServerMonitor{
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			m.onTopologyChanged(gen, e.PreviousDescription, e.NewDescription)
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			m.onHeartbeatFailed(gen, e.Failure)
		},
	}
}

func (m *Mongo) onTopologyChanged(gen uint64, prev, next description.Topology) {
	m.servers.Store(int32(len(next.Servers)))
	if !m.current(gen) {
		return
	}
	was, is := available(prev), available(next)
	m.healthy.Store(is)
	switch {
	case was && !is:
		m.publish(EventDisconnected, errors.New("no reachable servers in topology"))
	case !was && is:
		m.publish(EventConnected, nil)
	}
}

// onHeartbeatFailed only reports an error for single-server deployments.
// In a replica set one failing member leaves the rest serving, and a full
// loss shows up as a topology change instead.
func (m *Mongo) onHeartbeatFailed(gen uint64, failure error) {
	if !m.current(gen) || m.servers.Load() > 1 {
		return
	}
	m.healthy.Store(false)
	m.publish(EventError, failure)
}

// available reports whether any server in t can serve operations.
func available(t description.Topology) bool {
	for _, s := range t.Servers {
		switch s.Kind {
		case description.Standalone, description.RSPrimary, description.RSSecondary,
			description.Mongos, description.LoadBalancer:
			return true
		}
	}
	return false
}
