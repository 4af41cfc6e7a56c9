package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
	"github.com/gerenciacar/gerenciacar-server/config"
	"github.com/gerenciacar/gerenciacar-server/service/appointment"
	"github.com/gerenciacar/gerenciacar-server/service/catalog"
	"github.com/gerenciacar/gerenciacar-server/service/client"
	"github.com/gerenciacar/gerenciacar-server/service/dashboard"
	"github.com/gerenciacar/gerenciacar-server/service/scheduling"
	"github.com/gerenciacar/gerenciacar-server/service/user"
)

type APIServer struct {
	cfg    config.Config
	db     *gorm.DB
	log    *slog.Logger
	server *http.Server
}

func NewAPIServer(cfg config.Config, db *gorm.DB, log *slog.Logger) *APIServer {
	return &APIServer{cfg: cfg, db: db, log: log}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	public := router.PathPrefix("/api/v1").Subrouter()
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(utils.AuthMiddleware(s.cfg.JWTSecret))

	userHandler := user.NewHandler(s.db, s.cfg.JWTSecret, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
	userHandler.RegisterPublicRoutes(public)
	userHandler.RegisterRoutes(protected)

	schedulingService := scheduling.NewService(
		scheduling.NewGormRepository(s.db),
		scheduling.NewGormCatalog(s.db),
	)
	appointmentHandler := appointment.NewAppointmentHandler(schedulingService, s.log)
	appointmentHandler.RegisterRoutes(protected)

	clientHandler := client.NewClientHandler(s.db)
	clientHandler.RegisterRoutes(protected)

	catalogHandler := catalog.NewCatalogHandler(s.db)
	catalogHandler.RegisterRoutes(protected)

	dashboardHandler := dashboard.NewDashboardHandler(s.db)
	dashboardHandler.RegisterRoutes(protected)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	s.server = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      cors(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("server listening", slog.String("addr", s.cfg.HTTPAddr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests up to the configured timeout.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requestLogger tags every request with an id and logs it on completion.
func (s *APIServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.Info("request",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
