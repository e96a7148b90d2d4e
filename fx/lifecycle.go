package fx

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/http/handlers"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/adapters/http/middleware"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/config"
	kafkaconn "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/infrastructure/kafka"
)

// APILifecycleParams contains the loan service binary's dependencies.
type APILifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger

	DB        *sql.DB
	KafkaConn *kafkaconn.Connection
	Publisher ports.EventPublisher

	Engine      *gin.Engine
	LoanHandler *handlers.LoanHandler
	RateLimiter *middleware.RateLimiter
}

// RegisterAPILifecycle starts the HTTP server and tears everything down in
// reverse order on shutdown.
func RegisterAPILifecycle(params APILifecycleParams) {
	var server *http.Server

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("Starting loan service",
				zap.String("app_name", params.Config.App.Name),
				zap.String("environment", params.Config.App.Env),
			)

			setupRoutes(params)

			// Pre-create the topic so the first create-loan does not race
			// auto-creation.
			if err := params.KafkaConn.EnsureTopics(ctx, []string{params.Config.Kafka.Topic}); err != nil {
				params.Logger.Warn("Failed to ensure Kafka topics", zap.Error(err))
			}

			server = &http.Server{
				Addr:           ":" + params.Config.App.Port,
				Handler:        params.Engine,
				ReadTimeout:    15 * time.Second,
				WriteTimeout:   15 * time.Second,
				IdleTimeout:    60 * time.Second,
				MaxHeaderBytes: 1 << 20,
			}

			go func() {
				params.Logger.Info("HTTP server starting",
					zap.String("address", ":"+params.Config.App.Port),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					params.Logger.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},

		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Stopping loan service")

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(shutdownCtx); err != nil {
					params.Logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
				}
			}

			if err := params.Publisher.Close(); err != nil {
				params.Logger.Error("Failed to close publisher", zap.Error(err))
			}

			if err := params.DB.Close(); err != nil {
				params.Logger.Error("Failed to close database", zap.Error(err))
			}

			params.Logger.Info("Loan service stopped")
			return nil
		},
	})
}

func setupRoutes(params APILifecycleParams) {
	params.Engine.Use(params.RateLimiter.Limit())

	params.Engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"app":    params.Config.App.Name,
			"env":    params.Config.App.Env,
		})
	})

	v1 := params.Engine.Group("/api/v1")
	{
		v1.POST("/loans", params.LoanHandler.CreateLoan)
		v1.GET("/loans", params.LoanHandler.ListLoans)
	}

	params.Logger.Info("HTTP routes configured",
		zap.String("create", "POST /api/v1/loans"),
		zap.String("list", "GET /api/v1/loans"),
	)
}
