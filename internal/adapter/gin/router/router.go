package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-api/api/swagger"
	"user-api/internal/adapter/gin/handler"
	"user-api/internal/adapter/gin/middleware"
	"user-api/pkg/logger"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SetupRouter configures and returns a Gin router with all routes and
// middleware. limiter may be nil to disable rate limiting.
func SetupRouter(
	userHandler *handler.UserHandler,
	db Pinger,
	limiter middleware.Limiter,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.GET("/health", health(db, log))
	router.GET("/swagger/*any", swaggerDocs())

	users := router.Group("/api/users")
	users.Use(middleware.RateLimiter(limiter, log))
	userHandler.RegisterRoutes(users)

	return router
}

func health(db Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.WithContext(ctx, log).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// swaggerDocs serves the embedded document at /swagger/doc.json and the UI
// for every other path under /swagger.
func swaggerDocs() gin.HandlerFunc {
	ui := gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return func(c *gin.Context) {
		if c.Param("any") == "/doc.json" {
			c.Data(http.StatusOK, "application/json; charset=utf-8", swagger.Doc)
			return
		}
		ui(c)
	}
}
