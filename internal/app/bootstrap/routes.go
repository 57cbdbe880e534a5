// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	authapifeature "github.com/dalemusser/stratagate/internal/app/features/authapi"
	errorsfeature "github.com/dalemusser/stratagate/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratagate/internal/app/features/health"
	homefeature "github.com/dalemusser/stratagate/internal/app/features/home"
	maidsfeature "github.com/dalemusser/stratagate/internal/app/features/maids"
	propertiesfeature "github.com/dalemusser/stratagate/internal/app/features/properties"
	shopsfeature "github.com/dalemusser/stratagate/internal/app/features/shops"
	statusfeature "github.com/dalemusser/stratagate/internal/app/features/status"
	"github.com/dalemusser/stratagate/internal/app/system/accesslog"
	"github.com/dalemusser/stratagate/internal/app/system/apicors"
	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"github.com/dalemusser/stratagate/internal/app/system/authutil"
	"github.com/dalemusser/stratagate/internal/app/system/gate"
	"github.com/dalemusser/stratagate/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// tokenIssuer is the JWT issuer claim for login tokens.
const tokenIssuer = "stratagate"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Layout:
//
//	/                  service banner (not gated)
//	/api/health        connection state, never dials (not gated)
//	/readyz, /livez    orchestrator probes (not gated)
//	/metrics           Prometheus exposition (not gated)
//	/assets/*          static files (not gated)
//	/api/admin/status  supervisor snapshot behind the API key (not gated)
//	/api/auth|maids|properties|shops  resource routes behind the request gate
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	sup := deps.Supervisor
	var collector metrics.Collector = metrics.Noop()
	if deps.Metrics != nil {
		collector = deps.Metrics
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	// It must exceed gate_timeout + query_timeout so those answer first.
	r.Use(chimw.Timeout(appCfg.GateTimeout + appCfg.QueryTimeout + 5*time.Second))

	// Request ID + structured access log.
	r.Use(accesslog.Middleware(accesslog.DefaultConfig(logger)))

	// Request counters and latency by route pattern.
	r.Use(metrics.Middleware(collector))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(apicors.Middleware(apicors.ParseOrigins(appCfg.CORSOrigins)...))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// ─────────────────────────────────────────────────────────────────────────────
	// Ungated routes: answer without touching the store connection
	// ─────────────────────────────────────────────────────────────────────────────

	homeHandler := homefeature.NewHandler(appCfg.Version)
	r.Mount("/", homefeature.Routes(homeHandler))

	healthHandler := healthfeature.NewHandler(sup, logger)
	r.Mount("/api/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/assets/*", fileserver.Handler("/assets", appCfg.AssetsPath))

	statusHandler := &statusfeature.Handler{
		Source:  sup,
		Version: appCfg.Version,
		Gate:    appCfg.GateTimeout,
	}
	if taskRunner != nil {
		statusHandler.Jobs = taskRunner
	}
	r.Route("/api/admin/status", func(sr chi.Router) {
		sr.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
		sr.Mount("/", statusfeature.Routes(statusHandler))
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Gated routes: every request waits for the store connection first
	// ─────────────────────────────────────────────────────────────────────────────

	tokens := authutil.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTExpiry, tokenIssuer)

	r.Group(func(gr chi.Router) {
		gr.Use(gate.Middleware(sup, gate.Config{
			Timeout:    appCfg.GateTimeout,
			RetryAfter: appCfg.RetryDelay,
			Logger:     logger.Named("gate"),
			Metrics:    collector,
		}))

		gr.Mount("/api/auth", authapifeature.Routes(authapifeature.NewHandler(sup, tokens, logger)))
		gr.Mount("/api/maids", maidsfeature.Routes(maidsfeature.NewHandler(sup, logger)))
		gr.Mount("/api/properties", propertiesfeature.Routes(propertiesfeature.NewHandler(sup, logger)))
		gr.Mount("/api/shops", shopsfeature.Routes(shopsfeature.NewHandler(sup, logger)))
	})

	// Server spans for every request; the propagator is installed in Startup.
	return otelhttp.NewHandler(r, appCfg.ServiceName), nil
}
