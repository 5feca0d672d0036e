package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yegors/wx-widget/internal/config"
	"github.com/yegors/wx-widget/internal/websocket"
	"github.com/yegors/wx-widget/pkg/logger"
)

// Router wires the API handlers, the websocket endpoint and the static widget
type Router struct {
	handler  *Handler
	static   *StaticFileHandler
	wsServer *websocket.Server
	origins  []string
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(looker Looker, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(looker, cfg, log, wsServer),
		static:   NewStaticFileHandler(cfg.Server.StaticFilesDir, log),
		wsServer: wsServer,
		origins:  cfg.Server.CORSAllowedOrigins,
		logger:   log.Named("router"),
	}
}

// Routes returns the HTTP handler for every endpoint
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		// An empty allow-list means no CORS headers at all
		if len(rt.origins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: rt.origins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         300,
			}))
		}

		r.Get("/health", rt.handler.GetHealth)
		r.Get("/config", rt.handler.GetConfig)
		r.Get("/weather", rt.handler.GetWeather)
		r.Get("/weather/coords", rt.handler.GetWeatherByCoordinates)
		r.Get("/clock", rt.handler.GetClock)
		r.Get("/conditions/{code}", rt.handler.GetCondition)
		r.Get("/countries/{code}", rt.handler.GetCountry)
	})

	if rt.wsServer != nil {
		r.Get("/ws", rt.wsServer.HandleConnection)
	}

	r.Handle("/*", rt.static)

	return r
}

func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		rt.logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())))
	})
}
