package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratingwatch/pkg/logger"
	"ratingwatch/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(ratingHandler *RatingHandler) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("rating-service"))

	// CORS: кросс-доменные GET разрешены всем источникам,
	// preflight отвечает 200
	router.Use(cors.New(cors.Config{
		AllowOrigins:              []string{"*"},
		AllowMethods:              []string{"GET", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		MaxAge:                    300,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	// Health check endpoint - не зависит от ядра
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "rating-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/rating", ratingHandler.GetRating)
	router.GET("/refresh", ratingHandler.Refresh)
	router.GET("/history", ratingHandler.GetHistory)

	// Эндпоинт планового триггера (опционально защищен bearer-секретом)
	cron := router.Group("/cron")
	{
		cron.GET("/update", ratingHandler.CronUpdate)
	}

	return router
}
