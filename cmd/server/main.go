package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photosocial/api/handlers"
	"photosocial/api/middleware"
	"photosocial/api/routes"
	"photosocial/config"
	"photosocial/db"
	"photosocial/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	conf := zap.NewProductionConfig()
	if err := conf.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return conf.Build()
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		panic("Failed to load .env: " + err.Error())
	}
	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig

	logger, err := newLogger(conf.Logs.Level)
	if err != nil {
		panic("Failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	if err := db.ConnectDB(conf); err != nil {
		logger.Fatal("Failed to connect to the database", zap.Error(err))
	}
	defer db.Close()

	if err := services.InitRedis(conf); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer services.CloseRedis()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var revocations services.RevocationStore
	if services.RedisClient != nil {
		revocations = services.NewRedisRevocations(services.RedisClient)
	} else {
		logger.Warn("redis is not configured, logout will not revoke tokens")
	}
	tokens := services.NewTokenIssuer(conf.Auth.JWTSecret, conf.Auth.TokenTTL, revocations)

	blobs, err := services.NewLocalBlobStore(conf.Blob.Dir, conf.Blob.PublicURL)
	if err != nil {
		logger.Fatal("Failed to prepare blob store", zap.Error(err))
	}
	janitor := services.NewBlobJanitor(services.RedisClient, blobs, logger)
	janitor.StartWorkers(ctx)

	presence := services.NewPresenceRegistry(logger)
	defer presence.Close()

	var bus services.EventPublisher
	if conf.RabbitMQ.URL != "" {
		rabbit, err := services.DialRabbitBus(conf.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		bus = rabbit
		direct := services.NewNotifier(nil, presence, logger)
		if err := rabbit.StartConsumer(ctx, conf.RabbitMQ.Queue, direct.Deliver); err != nil {
			logger.Fatal("Failed to start event consumer", zap.Error(err))
		}
	}
	notifier := services.NewNotifier(bus, presence, logger)

	svc := services.New(services.Deps{
		Logger:   logger,
		Tokens:   tokens,
		Blobs:    blobs,
		Janitor:  janitor,
		Notifier: notifier,
		Options: services.Options{
			AtomicPairedWrites: conf.Databases.AtomicPairedWrites,
			PostImageMaxBytes:  conf.Uploads.PostImageMaxBytes,
			AvatarMaxBytes:     conf.Uploads.AvatarMaxBytes,
		},
	})

	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.PrometheusMiddleware("social"))
	if len(conf.CORS.Origins) > 0 {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = conf.CORS.Origins
		corsConf.AllowCredentials = true
		corsConf.AddAllowHeaders("Authorization")
		corsConf.AddAllowMethods(http.MethodPatch)
		router.Use(cors.New(corsConf))
	}
	router.Use(middleware.ErrorBoundary(logger))

	h := handlers.New(svc, tokens, presence, logger, conf.Presence.RequireToken)
	routes.PublicApi(router, h, tokens, routes.Options{
		LegacyToggles: conf.LegacyToggles(),
		BlobDir:       conf.Blob.Dir,
		BlobURL:       conf.Blob.PublicURL,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: router,
	}
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received interrupt signal, shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	presence.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
