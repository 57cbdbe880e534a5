// Package metrics exposes gateway telemetry.
//
// Components depend on the Collector interface; Prometheus is the only
// real implementation. Use Noop in tests or when metrics are disabled.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records gateway events. Implementations must be cheap: calls
// happen inline on the request path.
type Collector interface {
	SetConnectionState(state string)
	IncConnectAttempt(outcome string)
	IncGateRejection(reason string)
	ObserveRequest(method, route string, status int, d time.Duration)
}

type noopCollector struct{}

// Noop returns a collector that discards everything.
func Noop() Collector { return noopCollector{} }

func (noopCollector) SetConnectionState(string)                         {}
func (noopCollector) IncConnectAttempt(string)                          {}
func (noopCollector) IncGateRejection(string)                           {}
func (noopCollector) ObserveRequest(string, string, int, time.Duration) {}

// ConnectionStates lists every label value used by the state gauge.
var ConnectionStates = []string{"disconnected", "connecting", "connected", "errored"}

// Prometheus implements Collector.
type Prometheus struct {
	state      *prometheus.GaugeVec
	attempts   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheus registers the gateway metrics with reg. A nil reg uses the
// default registerer. Metrics already registered on reg are reused.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var err error
	p := &Prometheus{}

	if p.state, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stratagate_store_connection_state",
		Help: "Current store connection state (1 for the active state, 0 otherwise).",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if p.attempts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stratagate_store_connect_attempts_total",
		Help: "Physical store connect attempts by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if p.rejections, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stratagate_gate_rejections_total",
		Help: "Requests refused by the request gate by reason.",
	}, []string{"reason"})); err != nil {
		return nil, err
	}
	if p.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if p.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}

	p.SetConnectionState("disconnected")
	return p, nil
}

// register adds c to reg, returning the existing collector when one with
// the same descriptor is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// SetConnectionState marks state as the active connection state.
func (p *Prometheus) SetConnectionState(state string) {
	for _, s := range ConnectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.state.WithLabelValues(s).Set(v)
	}
}

// IncConnectAttempt counts a finished connect attempt.
func (p *Prometheus) IncConnectAttempt(outcome string) {
	p.attempts.WithLabelValues(outcome).Inc()
}

// IncGateRejection counts a request the gate refused.
func (p *Prometheus) IncGateRejection(reason string) {
	p.rejections.WithLabelValues(reason).Inc()
}

// ObserveRequest records a served HTTP request.
func (p *Prometheus) ObserveRequest(method, route string, status int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.latency.WithLabelValues(method, route).Observe(d.Seconds())
}
