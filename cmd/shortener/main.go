package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/linkcut/internal/app"
	"github.com/tempizhere/linkcut/internal/auth"
	"github.com/tempizhere/linkcut/internal/config"
	"github.com/tempizhere/linkcut/internal/email"
	"github.com/tempizhere/linkcut/internal/geo"
	grpcserver "github.com/tempizhere/linkcut/internal/grpc"
	"github.com/tempizhere/linkcut/internal/grpc/proto"
	"github.com/tempizhere/linkcut/internal/log"
	"github.com/tempizhere/linkcut/internal/middleware"
	"github.com/tempizhere/linkcut/internal/repository"
	"github.com/tempizhere/linkcut/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	logger := log.NewLogger()
	defer logger.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Подключение к базе данных; без DSN работаем на памяти
	db, err := app.NewDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	var links repository.LinkRepository
	var history repository.HistoryRepository
	if db != nil {
		defer db.Close()
		links = repository.NewPostgresRepository(db, logger)
		history = repository.NewPostgresHistoryRepository(db, logger)
		logger.Info("Using PostgreSQL storage")
	} else {
		links = repository.NewMemoryRepository()
		history = repository.NewMemoryHistoryRepository()
		logger.Info("Using in-memory storage")
	}

	authSvc := auth.NewService(auth.Config{
		JWTSecret:  cfg.JWTSecret,
		CookieName: "auth_token",
		CookieTTL:  cfg.CookieTTL,
	}, links)

	svc := service.NewService(links, history, authSvc, cfg.BaseURL, logger).
		WithLocator(geo.NewClient(logger))

	if cfg.SMTPHost != "" && cfg.NotifyEmail != "" {
		sender := email.NewSender(email.Config{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			From:   cfg.SMTPFrom,
			Secret: cfg.SMTPSecret,
		}, logger)
		svc.WithNotifier(sender, cfg.NotifyEmail)
		logger.Info("Email notifications enabled", zap.String("to", cfg.NotifyEmail))
	}

	appInstance := app.NewApp(svc, db, logger)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.GzipMiddleware)
	r.Use(middleware.AuthMiddleware(authSvc, logger))

	r.Post("/", appInstance.HandlePostURL)
	r.Get("/{slug}", appInstance.HandleRedirect)
	r.Get("/ping", appInstance.HandlePing)
	r.Post("/api/shorten", appInstance.HandleJSONShorten)
	r.Post("/api/resolve/{slug}", appInstance.HandleResolve)
	r.Get("/api/links", appInstance.HandleUserLinks)
	r.Put("/api/links/{slug}/expiration", appInstance.HandleSetExpiration)
	r.Delete("/api/links/{slug}/expiration", appInstance.HandleRemoveExpiration)
	r.Put("/api/links/{slug}/customize", appInstance.HandleCustomizeSlug)
	r.Put("/api/links/{slug}/password", appInstance.HandleSetPassword)
	r.Delete("/api/links/{slug}/password", appInstance.HandleRemovePassword)
	r.Get("/api/links/{slug}/history", appInstance.HandleHistory)
	r.Delete("/api/links/{slug}", appInstance.HandleDeleteLink)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TrustedSubnetMiddleware(cfg.TrustedSubnet, logger))
		r.Get("/api/internal/stats", appInstance.HandleStats)
	})

	httpServer := &http.Server{
		Addr:    cfg.RunAddr,
		Handler: r,
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcserver.LoggingInterceptor(logger),
			grpcserver.TrustedSubnetInterceptor(cfg.TrustedSubnet, logger),
			grpcserver.AuthInterceptor(authSvc, logger),
		),
	)
	proto.RegisterLinkCutServiceServer(grpcSrv, grpcserver.NewServer(svc, db, logger))

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.RunAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("Failed to listen gRPC address", zap.Error(err))
		}
		logger.Info("Starting gRPC server", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(listener); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcSrv.GracefulStop()
}
