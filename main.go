package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"

	"chat_relay/internal/api"
	"chat_relay/internal/middleware"
	"chat_relay/internal/repository"
	"chat_relay/internal/service"
	"chat_relay/internal/storage"
	"chat_relay/pkg/config"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(cfg.Log.Level)

	// 初始化儲存層與 repositories
	store := storage.NewMemoryStore(logger.With("component", "store"))
	repos := repository.NewRepositories(store)

	// 初始化 services
	services, err := service.NewServices(repos, service.Options{
		LobbyRoom:          cfg.Relay.LobbyRoom,
		AnnounceDepartures: cfg.Relay.AnnounceDepartures,
		Client: service.ClientConfig{
			ReadLimit:  cfg.WebSocket.ReadLimit,
			SendBuffer: cfg.WebSocket.SendBuffer,
			PongWait:   cfg.WebSocket.PongWait,
			PingPeriod: cfg.WebSocket.PingPeriod,
			WriteWait:  cfg.WebSocket.WriteWait,
		},
	}, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 設置 Gin 路由
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger.With("component", "http")))
	api.SetupRoutes(r, services, cfg.WebSocket.AllowedOrigins, logger.With("component", "websocket"))

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Chat relay listening", "address", cfg.Server.Address, "lobby", cfg.Relay.LobbyRoom)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return exitRuntime, fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// hijacked websocket 連線不受 server.Shutdown 管理，需要先關閉
	if err := services.WebSocket.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Websocket connections did not close in time", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("server shutdown: %w", err)
	}

	stats := services.Router.Stats()
	logger.Info("Chat relay stopped", "delivered", stats.Delivered, "failed", stats.Failed)
	return exitOK, nil
}
