package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Krimson/dts-viewer/viewer/internal/config"
	"github.com/Krimson/dts-viewer/viewer/internal/export"
	"github.com/Krimson/dts-viewer/viewer/internal/health"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/objectstore"
	"github.com/Krimson/dts-viewer/viewer/internal/recording"
	"github.com/Krimson/dts-viewer/viewer/internal/server"
	"github.com/Krimson/dts-viewer/viewer/internal/session"
	dsp "github.com/Krimson/dts-viewer/viewer/internal/signal"
	"github.com/Krimson/dts-viewer/viewer/internal/storage"
	"github.com/Krimson/dts-viewer/viewer/internal/websocket"
)

func serveCmd() *cobra.Command {
	var load string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.LogLevel)
			defer logger.Sync()
			return serve(cmd.Context(), cfg, logger, load)
		},
	}

	cmd.Flags().StringVar(&load, "load", "", "recording to load at startup")
	return cmd
}

// sinks connects the optional export and cache backends. A backend that
// cannot be reached is logged and skipped.
type sinks struct {
	export   []export.Sink
	postgres *storage.PostgresRepository
	redis    *storage.RedisStore
	closers  []func() error
}

func connectSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) *sinks {
	s := &sinks{}

	if cfg.PostgresDSN != "" {
		repo, err := storage.NewPostgresRepositoryFromDSN(cfg.PostgresDSN)
		if err != nil {
			logger.Warn("postgres unavailable, exports will not be recorded", zap.Error(err))
		} else if err := repo.EnsureSchema(ctx); err != nil {
			logger.Warn("postgres schema", zap.Error(err))
			repo.Close()
		} else {
			logger.Info("connected to postgres")
			s.export = append(s.export, repo)
			s.postgres = repo
			s.closers = append(s.closers, repo.Close)
		}
	}

	if cfg.S3Bucket != "" {
		cli, err := objectstore.NewClient(ctx, objectstore.ClientConfig{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Warn("s3 unavailable, exports will not be uploaded", zap.Error(err))
		} else {
			logger.Info("uploading exports", zap.String("bucket", cfg.S3Bucket), zap.String("prefix", cfg.S3Prefix))
			s.export = append(s.export, objectstore.NewUploader(cli, cfg.S3Bucket, cfg.S3Prefix, logger))
		}
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.SinkTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, summaries will not be cached", zap.Error(err))
			client.Close()
		} else {
			logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
			s.redis = storage.NewRedisStore(client, cfg.RedisTTL, cfg.SinkTimeout, logger)
			s.closers = append(s.closers, client.Close)
		}
	}

	return s
}

func (s *sinks) Close() {
	for _, c := range s.closers {
		c()
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, load string) error {
	logger.Info("starting dtsviewer",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.Int("window_divisor", cfg.WindowDivisor),
	)

	backends := connectSinks(ctx, cfg, logger)
	defer backends.Close()

	exporter := export.NewExporter(export.Options{
		Parquet:     cfg.ExportParquet,
		SinkTimeout: cfg.SinkTimeout,
	}, logger, backends.export...)

	manager := session.NewManager(
		recording.TextReader{},
		dsp.NewDetector(detectorConfig(cfg)),
		exporter,
		sessionOptions(cfg, logger),
		logger,
	)

	hub := websocket.NewHub(manager, logger)
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	healthServer := health.NewHealthServer()
	healthServer.SetServingStatus("")
	healthServer.SetExperimentLoaded(false)

	manager.AddObserver(healthServer)
	manager.AddObserver(hub)
	manager.AddOverrideListener(hub)
	if backends.redis != nil {
		manager.AddObserver(backends.redis)
		manager.AddOverrideListener(backends.redis)
	}

	if load != "" {
		if _, err := manager.Load(ctx, load); err != nil {
			logger.Error("startup load failed", zap.String("path", load), zap.Error(err))
		}
	}

	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	grpcAddr := fmt.Sprintf(":%s", cfg.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	router := mux.NewRouter()
	handler := server.NewHTTPHandler(manager, hub.HandleWebSocket, logger)
	if backends.redis != nil {
		handler.AddSummarySource("cache", backends.redis)
	}
	if backends.postgres != nil {
		handler.AddSummarySource("database", backends.postgres)
	}
	handler.RegisterRoutes(router)
	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      enableCORS(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrChan := make(chan error, 2)
	go func() {
		logger.Info("grpc server listening", zap.String("addr", grpcAddr))
		if err := grpcServer.Serve(listener); err != nil {
			serverErrChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		logger.Error("server error", zap.Error(err))
		grpcServer.Stop()
		httpServer.Close()
		return err

	case sig := <-shutdownChan:
		logger.Info("received signal, starting graceful shutdown", zap.String("signal", sig.String()))
	}

	healthServer.SetNotServingStatus("")
	healthServer.SetExperimentLoaded(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		logger.Warn("graceful shutdown timeout, forcing stop")
		grpcServer.Stop()
	}

	logger.Info("server stopped")
	return nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}
