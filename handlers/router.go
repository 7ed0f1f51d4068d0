package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"accident-severity-api/config"
	"accident-severity-api/middleware"
	"accident-severity-api/models"
	"accident-severity-api/services"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Predictions *services.PredictionService
	Data        *services.DataService
	Analytics   *services.AnalyticsService
	History     *services.HistoryService
	Auth        *services.AuthService
	Cache       *services.CacheService
	Conns       *services.ConnectionManager
	Logger      *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(d.Logger.With("component", "http")))
	router.Use(middleware.SetupCORS(d.Config.CORS))

	health := NewHealthHandler(d.Config.App, d.Predictions, d.Cache, d.Conns)
	stream := NewStreamHandler(d.Predictions, d.Conns, d.Logger)

	router.GET("/", health.Root)
	router.GET("/health", health.Health)
	router.GET("/ws/predictions", stream.Predictions)

	api := router.Group("/api/v1")
	api.GET("/health", health.Detailed)
	api.GET("/ws/stats", stream.Stats)

	prediction := NewPredictionHandler(d.Predictions)
	api.POST("/predict", prediction.Predict)
	api.POST("/predict/batch", prediction.PredictBatch)

	model := NewModelHandler(d.Predictions)
	api.GET("/model/performance", model.Performance)
	api.GET("/model/status", model.Status)
	if d.Config.Auth.Required {
		api.POST("/model/retrain", middleware.RequireRole(d.Auth, models.RoleAdmin), model.Retrain)
	} else {
		api.POST("/model/retrain", model.Retrain)
	}

	data := NewDataHandler(d.Data)
	api.POST("/data/explore", data.Explore)
	api.GET("/data/summary", data.Summary)

	analytics := NewAnalyticsHandler(d.Analytics)
	api.GET("/analytics/trends", analytics.Trends)
	api.GET("/analytics/risk-factors", analytics.RiskFactors)
	api.GET("/analytics/geographical", analytics.Geographical)

	history := NewHistoryHandler(d.History)
	api.GET("/predictions", history.List)

	auth := NewAuthHandler(d.Auth)
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", auth.Logout)

	return router
}
