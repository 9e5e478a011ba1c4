package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/amirrudd/flyerboard/internal/adapter/grpc"
	natsAdapter "github.com/amirrudd/flyerboard/internal/adapter/messaging/nats"
	"github.com/amirrudd/flyerboard/internal/adapter/repository/cache"
	mongoRepo "github.com/amirrudd/flyerboard/internal/adapter/repository/mongodb"
	"github.com/amirrudd/flyerboard/internal/adapter/rest"
	"github.com/amirrudd/flyerboard/internal/adapter/storage/s3"
	"github.com/amirrudd/flyerboard/internal/config"
	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/listing/usecase"
	"github.com/amirrudd/flyerboard/internal/mailer"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/amirrudd/flyerboard/internal/platform/metrics"
	"github.com/amirrudd/flyerboard/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Application starting...", zap.String("service_name", cfg.ServiceName))

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// MongoDB
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelConnect()
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)
	appLogger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	// Redis
	redisClient, err := cache.NewClient(context.Background(), cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	listingCache := cache.NewListingCache(redisClient, cfg.ListingCacheTTL, appLogger)
	preferenceStore := cache.NewPreferenceStore(redisClient)

	// MinIO
	imageStorage, err := s3.NewS3Storage(context.Background(),
		cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// NATS
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, cfg.ServiceName, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	var notifier domain.Notifier
	if cfg.SMTPUsername != "" {
		notifier = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		appLogger.Info("SMTP not configured, price drop emails are disabled")
	}

	metricsManager := metrics.NewMetricsManager("flyerboard")

	listingRepo := mongoRepo.NewListingRepository(db, appLogger)
	categoryRepo := mongoRepo.NewCategoryRepository(db, appLogger)
	favoriteRepo := mongoRepo.NewFavoriteRepository(db, appLogger)
	userRepo := mongoRepo.NewUserRepository(db, appLogger)

	feedUC := usecase.NewFeedUsecase(listingRepo, listingCache, metricsManager, appLogger)
	listingUC := usecase.NewListingUsecase(usecase.ListingDeps{
		Repo:       listingRepo,
		Categories: categoryRepo,
		Favorites:  favoriteRepo,
		Users:      userRepo,
		Cache:      listingCache,
		Publisher:  natsPublisher,
		Notifier:   notifier,
		Metrics:    metricsManager,
	}, appLogger)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, appLogger)
	favoriteUC := usecase.NewFavoriteUsecase(favoriteRepo, listingRepo, appLogger)
	imageUC := usecase.NewImageUsecase(imageStorage, listingUC, cfg.ImageURLExpiry, appLogger)
	preferenceUC := usecase.NewPreferenceUsecase(preferenceStore)

	// gRPC
	grpcHandler := grpcAdapter.NewHandler(grpcAdapter.Deps{
		Feed:       feedUC,
		Listings:   listingUC,
		Categories: categoryUC,
		Favorites:  favoriteUC,
		Images:     imageUC,
	}, appLogger)
	grpcSrv, stopGRPC := grpcAdapter.NewGRPCServer(appLogger, cfg.JWTSecret, metricsManager, grpcHandler)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			appLogger.Fatal("gRPC server Serve error", zap.Error(err))
		}
	}()

	// REST
	restHandler := rest.NewHandler(rest.Deps{
		Feed:        feedUC,
		Listings:    listingUC,
		Images:      imageUC,
		Categories:  categoryUC,
		Favorites:   favoriteUC,
		Preferences: preferenceUC,
	}, appLogger)
	httpSrv := rest.NewHTTPServer(cfg.HTTPPort, rest.NewRouter(restHandler, cfg.JWTSecret, appLogger))
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	metricsSrv := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, metricsManager, appLogger)
	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	stopGRPC()
	appLogger.Info("Application shut down")
}
