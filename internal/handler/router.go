package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authHandler "github.com/echoai/deepchat/backend/internal/handler/auth"
	chatHandler "github.com/echoai/deepchat/backend/internal/handler/chat"
	middlewarePkg "github.com/echoai/deepchat/backend/internal/middleware"
	authService "github.com/echoai/deepchat/backend/internal/service/auth"
	chatService "github.com/echoai/deepchat/backend/internal/service/chat"
	"github.com/echoai/deepchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(authSvc *authService.Service, chatSvc *chatService.Service, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"message": "DeepSeek Chat API 服务运行中",
			"version": "1.0.0",
		})
	})

	r.Route("/api", func(api chi.Router) {
		authHandler.New(authSvc, chatSvc, logger).RegisterRoutes(api)
		chatHandler.New(chatSvc, logger).RegisterRoutes(api)
	})

	return r
}
