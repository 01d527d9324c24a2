package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/ai"
	appsvc "github.com/mmotors/backoffice/internal/app"
	"github.com/mmotors/backoffice/internal/bootstrap"
	"github.com/mmotors/backoffice/internal/cache"
	"github.com/mmotors/backoffice/internal/platform/rabbitmq"
	"github.com/mmotors/backoffice/internal/repository"
	"github.com/mmotors/backoffice/internal/transport/http/handler"
	"github.com/mmotors/backoffice/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	vehicleRepo := repository.NewVehicleRepository(app.MySQL)
	dossierRepo := repository.NewDossierRepository(app.MySQL)
	eventRepo := repository.NewDossierEventRepository(app.MySQL)
	optionRepo := repository.NewRentalOptionRepository(app.MySQL)
	serviceRepo := repository.NewRentalServiceRepository(app.MySQL)
	knowledgeRepo := repository.NewKnowledgeRepository(app.MySQL)
	chatRepo := repository.NewChatRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	catalogService := appsvc.NewCatalogService(vehicleRepo, serviceRepo, optionRepo)
	eventPublisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.DossierEventQueue)
	dossierService := appsvc.NewDossierService(dossierRepo, vehicleRepo, serviceRepo, eventRepo, eventPublisher)

	backend := ai.NewBackend(
		ai.NewOpenAICompatibleClient(),
		ai.EmbeddingConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.EmbeddingModel,
		},
		ai.ChatConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.Model,
		},
	)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
	)
	assistantService := appsvc.NewAssistantService(knowledgeRepo, chatRepo, backend, historyCache, appsvc.AssistantConfig{
		ChunkSize:      app.Config.RAG.ChunkSize,
		ChunkOverlap:   app.Config.RAG.ChunkOverlap,
		TopK:           app.Config.RAG.TopK,
		WelcomeMessage: app.Config.RAG.WelcomeMessage,
		ApologyMessage: app.Config.RAG.ApologyMessage,
	})

	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	dossierHandler := handler.NewDossierHandler(dossierService)
	assistantHandler := handler.NewAssistantHandler(assistantService)

	requireAuth := middleware.AuthJWT(app.Config.Auth.JWTSecret, authService)
	optionalAuth := middleware.OptionalAuthJWT(app.Config.Auth.JWTSecret, authService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	v1.GET("/vehicles", catalogHandler.ListVehicles)
	v1.GET("/vehicles/:id", catalogHandler.GetVehicle)
	v1.GET("/services", catalogHandler.ListServices)
	v1.GET("/services/:id", catalogHandler.GetService)
	v1.GET("/options", catalogHandler.ListOptions)

	// Guest chat rides the same endpoint: a missing token just yields a
	// guest session.
	v1.POST("/assistant/chat", optionalAuth, assistantHandler.Chat)

	dossierGroup := v1.Group("/dossiers", requireAuth)
	dossierGroup.POST("", dossierHandler.Create)
	dossierGroup.GET("", dossierHandler.ListMine)
	dossierGroup.GET("/:id", dossierHandler.Get)
	dossierGroup.PATCH("/:id", dossierHandler.Update)
	dossierGroup.POST("/:id/cancel", dossierHandler.Cancel)
	dossierGroup.POST("/:id/documents", dossierHandler.AddDocument)
	dossierGroup.GET("/:id/services", dossierHandler.ListServices)
	dossierGroup.POST("/:id/services", dossierHandler.AttachService)
	dossierGroup.DELETE("/:id/services/:serviceID", dossierHandler.DetachService)

	assistantGroup := v1.Group("/assistant", requireAuth)
	assistantGroup.GET("/sessions", assistantHandler.ListSessions)
	assistantGroup.GET("/sessions/:token", assistantHandler.GetSession)

	adminGroup := v1.Group("/admin", requireAuth)
	adminGroup.GET("/dossiers", dossierHandler.AdminList)
	adminGroup.PUT("/dossiers/:id/status", dossierHandler.AdminUpdateStatus)
	adminGroup.POST("/dossiers/:id/request-documents", dossierHandler.AdminRequestDocuments)
	adminGroup.GET("/dossiers/:id/events", dossierHandler.AdminListEvents)

	adminGroup.POST("/vehicles", catalogHandler.CreateVehicle)
	adminGroup.PUT("/vehicles/:id", catalogHandler.UpdateVehicle)
	adminGroup.DELETE("/vehicles/:id", catalogHandler.DeleteVehicle)
	adminGroup.POST("/services", catalogHandler.CreateService)
	adminGroup.PUT("/services/:id", catalogHandler.UpdateService)
	adminGroup.POST("/services/:id/deactivate", catalogHandler.DeactivateService)
	adminGroup.POST("/options", catalogHandler.CreateOption)
	adminGroup.PUT("/options/:id", catalogHandler.UpdateOption)
	adminGroup.DELETE("/options/:id", catalogHandler.DeleteOption)

	adminGroup.GET("/knowledge/documents", assistantHandler.ListDocuments)
	adminGroup.GET("/knowledge/documents/:id", assistantHandler.GetDocument)
	adminGroup.POST("/knowledge/documents", assistantHandler.IngestDocument)
	adminGroup.POST("/knowledge/documents/upload", assistantHandler.UploadPDF)
	adminGroup.DELETE("/knowledge/documents/:id", assistantHandler.DeleteDocument)

	return router
}
