// Package server assembles the HTTP API.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	apiAssistant "farmer_assist/pkg/api/assistant"
	apiAuth "farmer_assist/pkg/api/auth"
	apiConfig "farmer_assist/pkg/api/config"
	"farmer_assist/pkg/api/diagnose"
	apiExchange "farmer_assist/pkg/api/exchange"
	"farmer_assist/pkg/api/httpx"
	apiMarket "farmer_assist/pkg/api/market"
	apiNotify "farmer_assist/pkg/api/notify"
	"farmer_assist/pkg/api/schemes"
	"farmer_assist/pkg/api/speech"
	"farmer_assist/pkg/core/agent"
	"farmer_assist/pkg/core/auth"
	"farmer_assist/pkg/core/diagnosis"
	"farmer_assist/pkg/core/exchange"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/knowledge"
	"farmer_assist/pkg/core/market"
	"farmer_assist/pkg/core/notify"
	"farmer_assist/pkg/core/prompt"
	"farmer_assist/pkg/core/settings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the routes delegate to.
type Deps struct {
	Agents    *agent.Manager
	Prompts   *prompt.Registry
	Flows     *flow.Runner
	Auth      *auth.Service
	Diagnosis *diagnosis.Service
	Market    *market.Service
	Schemes   knowledge.Store
	Notify    *notify.Service
	Exchange  *exchange.Service
	// DBPing reports database health; nil when running in memory.
	DBPing func(ctx context.Context) error
}

type Server struct {
	cfg    settings.ServerConfig
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
}

func New(cfg settings.ServerConfig, d Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := chi.NewRouter()

	router.Use(Recovery(logger))
	router.Use(Logger(logger.Named("http")))
	router.Use(CORS(cfg.AllowedOrigins))
	router.Use(auth.Middleware(d.Auth))

	router.Get("/health", health(d.DBPing))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		authH := apiAuth.NewHandler(d.Auth, logger)
		r.Post("/auth/anonymous", authH.Anonymous)
		r.Post("/auth/phone/start", authH.StartPhone)
		r.Post("/auth/phone/verify", authH.VerifyPhone)
		r.Get("/auth/me", authH.Me)
		r.Post("/auth/signout", authH.SignOut)

		diagH := diagnose.NewHandler(d.Diagnosis, logger)
		r.With(auth.RequireUser).Post("/diagnose", diagH.Diagnose)
		r.With(auth.RequireUser).Get("/diagnose/history", diagH.History)

		marketH := apiMarket.NewHandler(d.Market, d.Flows, logger)
		r.Get("/market/prices", marketH.Prices)
		r.Post("/market/insights", marketH.Insights)

		schemeH := schemes.NewHandler(d.Schemes, d.Flows, d.Flows, logger)
		r.Get("/schemes", schemeH.List)
		r.Post("/schemes/query", schemeH.Query)

		speechH := speech.NewHandler(d.Flows, logger)
		r.Post("/speech", speechH.Speak)

		notifyH := apiNotify.NewHandler(d.Notify, logger)
		r.Post("/notify/emergency", notifyH.Emergency)
		r.Post("/notify/food-call", notifyH.FoodCall)
		r.Get("/notify/regions", notifyH.Regions)
		r.Get("/notify/recent", notifyH.Recent)
		r.Get("/notify/stream", notifyH.Stream)
		r.With(auth.RequireUser).Post("/admin/notify", notifyH.Broadcast)

		exchangeH := apiExchange.NewHandler(d.Exchange, logger)
		r.Get("/exchange/listings", exchangeH.List)
		r.With(auth.RequireUser).Post("/exchange/listings", exchangeH.Create)

		configH := apiConfig.NewHandler(d.Agents)
		r.Get("/config", configH.HandleConfig)
		r.Post("/config/switch", configH.HandleSwitch)

		assistantH := apiAssistant.NewHandler(d.Agents, d.Prompts, logger)
		r.Post("/assistant/navigate", assistantH.HandleNavigationIntent)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	// Shutdown waits for handlers to return; closing the hub ends open
	// notification streams.
	if d.Notify != nil {
		srv.RegisterOnShutdown(d.Notify.Hub().Close)
	}
	return &Server{cfg: cfg, router: router, server: srv, logger: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.cfg.Addr))
	return s.server.ListenAndServe()
}

// Serve accepts connections on l instead of listening on the configured address.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("API server starting", zap.String("addr", l.Addr().String()))
	return s.server.Serve(l)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "memory"}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				httpx.RespondJSON(w, status, http.StatusServiceUnavailable)
				return
			}
			status["database"] = "ok"
		}
		httpx.RespondJSON(w, status, http.StatusOK)
	}
}
