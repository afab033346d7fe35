package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/echoai/deepchat/backend/internal/config"
	"github.com/echoai/deepchat/backend/internal/handler"
	"github.com/echoai/deepchat/backend/internal/service/agent"
	authservice "github.com/echoai/deepchat/backend/internal/service/auth"
	chatservice "github.com/echoai/deepchat/backend/internal/service/chat"
	"github.com/echoai/deepchat/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("failed to load .env file, continuing with system environment only", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	storeClient := store.NewClient(cfg.Store.URL, cfg.Store.APIKey, cfg.Store.Timeout, logger)

	// 生成端凭证缺失时网关退化为本地回退回复，不影响启动。
	gateway := agent.NewGateway(ctx, cfg.Agent, logger)

	authSvc := authservice.NewService(storeClient, storeClient, logger)
	chatSvc := chatservice.NewService(storeClient, gateway, cfg.Chat.DefaultUserID, logger)

	router := handler.NewRouter(authSvc, chatSvc, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("DeepSeek chat backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
