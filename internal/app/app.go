package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/mvshop/marketplace-service/internal/auth"
	"github.com/mvshop/marketplace-service/internal/config"
	"github.com/mvshop/marketplace-service/internal/middleware"
)

type application struct {
	logger *slog.Logger

	router   chi.Router
	api      chi.Router
	httpSrv  *http.Server
	verifier *auth.TokenVerifier
	closers  []Closer
}

func New(logger *slog.Logger, cfg config.Config, verifier *auth.TokenVerifier) *application {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Cors.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	api := chi.NewRouter()
	router.Mount("/api", api)

	httpSrv := &http.Server{
		Handler: router,
		Addr:    net.JoinHostPort(cfg.Http.Host, cfg.Http.Port),
	}

	return &application{
		logger:   logger,
		httpSrv:  httpSrv,
		router:   router,
		api:      api,
		verifier: verifier,
	}
}

type HttpHandler interface {
	Init(r chi.Router)
}

// SetPublicHandlers - роуты без обязательного токена, актор
// подхватывается, если токен все же передан
func (a *application) SetPublicHandlers(handlers ...HttpHandler) {
	a.api.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(a.verifier))
		for _, h := range handlers {
			h.Init(r)
		}
	})
}

// SetProtectedHandlers - роуты, требующие валидный токен
func (a *application) SetProtectedHandlers(handlers ...HttpHandler) {
	a.api.Group(func(r chi.Router) {
		r.Use(middleware.Auth(a.verifier))
		for _, h := range handlers {
			h.Init(r)
		}
	})
}

type Closer interface {
	Close() error
}

func (a *application) SetClosers(closers ...Closer) {
	a.closers = closers
}

func (a *application) Start(ctx context.Context) {
	go a.startServer()

	a.logger.Info("application started")
}

func (a *application) startServer() {
	a.logger.Info("starting http server", slog.String("addr", a.httpSrv.Addr))
	if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("failed to start http server", slog.Any("error", err))
		os.Exit(1)
	}
}

const gracefulShutdownTimeout = 5 * time.Second

func (a *application) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", slog.Any("error", err))
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	a.logger.Info("application stopped")
}
