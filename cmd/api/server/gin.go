package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "user-api/internal/adapter/gin/handler"
	"user-api/internal/adapter/gin/middleware"
	ginrouter "user-api/internal/adapter/gin/router"
)

// SetupGinServer creates the HTTP server for the REST API
func SetupGinServer(
	handler *ginhandler.UserHandler,
	db ginrouter.Pinger,
	limiter middleware.Limiter,
	env string,
	addr string,
	l *zap.Logger,
) *http.Server {
	switch env {
	case "development":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handler, db, limiter, l)

	l.Info("REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
