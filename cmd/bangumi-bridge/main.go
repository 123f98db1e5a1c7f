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

	"github.com/Belphemur/BangumiBridge/internal/blob"
	"github.com/Belphemur/BangumiBridge/internal/chat"
	"github.com/Belphemur/BangumiBridge/internal/client"
	"github.com/Belphemur/BangumiBridge/internal/command"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/errreport"
	grpcserver "github.com/Belphemur/BangumiBridge/internal/grpc"
	"github.com/Belphemur/BangumiBridge/internal/importer"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/Belphemur/BangumiBridge/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg := config.GetConfig()
	logger := config.GetLogger()

	logger.Info().
		Str("proxy_connection_string", cfg.ProxyConnectionString).
		Str("bangumi_api_domain", cfg.BangumiAPIDomain).
		Int("server_port", cfg.Server.Port).
		Str("server_address", cfg.Server.Address).
		Str("database", cfg.Database.Path).
		Str("upload_dir", cfg.Storage.UploadDir).
		Msg("Application started with configuration")

	if err := errreport.Init(cfg.Sentry.DSN, cfg.Sentry.Environment); err != nil {
		logger.Warn().Err(err).Msg("Error reporting disabled")
	}
	defer errreport.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open catalog database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close catalog database")
		}
	}()
	if *migrateOnly {
		logger.Info().Msg("Migrations applied")
		return
	}

	bangumi := client.NewClient(cfg)
	if calendarCache := client.NewCalendarCache(cfg); calendarCache != nil {
		bangumi = client.NewCachedClient(bangumi, calendarCache)
	}
	defer func() {
		if err := bangumi.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close Bangumi client")
		}
	}()

	pipeline := importer.New(bangumi, db.Tags, db.Files, db.Series, blob.NewOS(cfg.Storage.UploadDir))

	confirmTimeout := interaction.DefaultTimeout
	if cfg.Interaction.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.Interaction.Timeout); err == nil && parsed > 0 {
			confirmTimeout = parsed
		} else {
			logger.Warn().Str("timeout", cfg.Interaction.Timeout).Msg("Invalid interaction timeout, using default")
		}
	}
	dispatcher := command.NewDispatcher(bangumi, pipeline, command.WithConfirmTimeout(confirmTimeout))

	var servers []*http.Server

	chatServer := chat.NewServer(ctx, dispatcher).NewHTTPServer(cfg.Server.Address, cfg.Server.Port)
	servers = append(servers, chatServer)
	go serveHTTP(chatServer, "chat")

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		servers = append(servers, metricsServer)
		go serveHTTP(metricsServer, "Prometheus metrics")
	}

	if cfg.GRPC.Enabled {
		grpcServer := grpcserver.NewGRPCServer(bangumi)
		address := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", address)
		if err != nil {
			logger.Fatal().Err(err).Str("address", address).Msg("Failed to create listener")
		}
		go func() {
			logger.Info().Str("address", address).Msg("Starting gRPC server")
			if err := grpcServer.Serve(listener); err != nil {
				logger.Error().Err(err).Msg("Failed to serve gRPC")
			}
		}()
		defer grpcServer.GracefulStop()
	}

	<-ctx.Done()
	logger.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("address", srv.Addr).Msg("Failed to shutdown HTTP server")
		}
	}

	logger.Info().Msg("Server stopped gracefully")
}

func serveHTTP(srv *http.Server, name string) {
	logger := config.GetLogger()
	logger.Info().Str("address", srv.Addr).Msgf("Starting %s HTTP server", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Str("server", name).Msg("HTTP server failed")
	}
}
