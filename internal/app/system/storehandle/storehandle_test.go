package storehandle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/description"
)

func TestConnect_MalformedURI(t *testing.T) {
	m := NewMongo()
	err := m.Connect(context.Background(), "not-a-mongo-uri", DefaultOptions())
	if err == nil {
		t.Fatal("expected error for malformed uri")
	}
	if !IsMalformed(err) {
		t.Fatalf("expected malformed ConnectError, got %v", err)
	}
	if m.Database() != nil {
		t.Error("Database should be nil after failed connect")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	m := NewMongo()
	opts := DefaultOptions()
	opts.ServerSelectionTimeout = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Connect(ctx, "mongodb://127.0.0.1:1/?connect=direct", opts)
	if err == nil {
		t.Fatal("expected error connecting to closed port")
	}
	var ce *ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConnectError, got %T", err)
	}
	if ce.Reason != ReasonUnreachable {
		t.Errorf("Reason = %q, want %q", ce.Reason, ReasonUnreachable)
	}
	if m.IsHealthy() {
		t.Error("handle should not be healthy")
	}
}

func TestDatabase_NilBeforeConnect(t *testing.T) {
	if NewMongo().Database() != nil {
		t.Error("expected nil database before connect")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"auth code", mongo.CommandError{Code: 18, Message: "Authentication failed."}, ReasonAuth},
		{"auth text", errors.New("connection() error occurred during connection handshake: auth error: sasl conversation error"), ReasonAuth},
		{"timeout", context.DeadlineExceeded, ReasonUnreachable},
		{"other", errors.New("server selection error"), ReasonUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Reason != tt.want {
				t.Errorf("classify(%v).Reason = %q, want %q", tt.err, got.Reason, tt.want)
			}
			if got.Unwrap() == nil {
				t.Error("classified error should wrap the original")
			}
		})
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func topology(kinds ...description.ServerKind) description.Topology {
	var t description.Topology
	for _, k := range kinds {
		t.Servers = append(t.Servers, description.Server{Kind: k})
	}
	return t
}

// established fakes a live session at generation 1.
func established() *Mongo {
	m := NewMongo()
	m.gen.Store(1)
	m.established.Store(1)
	m.healthy.Store(true)
	return m
}

func TestMonitor_TopologyLossPublishesDisconnected(t *testing.T) {
	m := established()
	rec := &recorder{}
	m.Subscribe(rec.listen)

	m.onTopologyChanged(1, topology(description.Standalone), topology(description.Unknown))

	if m.IsHealthy() {
		t.Error("handle should be unhealthy after losing all servers")
	}
	got := rec.kinds()
	if len(got) != 1 || got[0] != EventDisconnected {
		t.Fatalf("events = %v, want [disconnected]", got)
	}

	m.onTopologyChanged(1, topology(description.Unknown), topology(description.Standalone))
	if !m.IsHealthy() {
		t.Error("handle should be healthy once a server is back")
	}
	got = rec.kinds()
	if len(got) != 2 || got[1] != EventConnected {
		t.Fatalf("events = %v, want [disconnected connected]", got)
	}
}

func TestMonitor_StaleGenerationIgnored(t *testing.T) {
	m := established()
	rec := &recorder{}
	m.Subscribe(rec.listen)

	m.gen.Store(2) // a newer connect has started

	m.onTopologyChanged(1, topology(description.RSPrimary), topology(description.Unknown))
	m.onHeartbeatFailed(1, errors.New("connection reset"))

	if len(rec.kinds()) != 0 {
		t.Errorf("stale monitor published %v", rec.kinds())
	}
}

func TestMonitor_HeartbeatFailure(t *testing.T) {
	t.Run("single server", func(t *testing.T) {
		m := established()
		m.servers.Store(1)
		rec := &recorder{}
		m.Subscribe(rec.listen)

		m.onHeartbeatFailed(1, errors.New("connection refused"))

		if m.IsHealthy() {
			t.Error("handle should be unhealthy")
		}
		got := rec.kinds()
		if len(got) != 1 || got[0] != EventError {
			t.Fatalf("events = %v, want [error]", got)
		}
	})

	t.Run("replica set member", func(t *testing.T) {
		m := established()
		m.servers.Store(3)
		rec := &recorder{}
		m.Subscribe(rec.listen)

		m.onHeartbeatFailed(1, errors.New("connection refused"))

		if !m.IsHealthy() {
			t.Error("one failing member should not mark the handle unhealthy")
		}
		if len(rec.kinds()) != 0 {
			t.Errorf("unexpected events %v", rec.kinds())
		}
	})
}

func TestDisconnect_NoEvent(t *testing.T) {
	m := established()
	rec := &recorder{}
	m.Subscribe(rec.listen)

	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if m.IsHealthy() {
		t.Error("handle should be unhealthy after disconnect")
	}
	if len(rec.kinds()) != 0 {
		t.Errorf("Disconnect should not publish, got %v", rec.kinds())
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{Database: "x"}.withDefaults()
	if got.ServerSelectionTimeout != DefaultServerSelectionTimeout {
		t.Errorf("ServerSelectionTimeout = %v", got.ServerSelectionTimeout)
	}
	if got.SocketTimeout != DefaultSocketTimeout {
		t.Errorf("SocketTimeout = %v", got.SocketTimeout)
	}
	if got.MaxPoolSize != DefaultMaxPoolSize {
		t.Errorf("MaxPoolSize = %v", got.MaxPoolSize)
	}
	if got.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v", got.HeartbeatInterval)
	}
	if got.Database != "x" {
		t.Errorf("Database = %q", got.Database)
	}
}
