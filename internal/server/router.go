package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/teamcore-backend/internal/handlers"
	"github.com/yungbote/teamcore-backend/internal/middleware"
)

type RouterConfig struct {
	TeamsHandler       *handlers.TeamsHandler
	JobsHandler        *handlers.JobsHandler
	OperatorMiddleware *middleware.OperatorMiddleware
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.OperatorHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Queries
		api.GET("/teams", cfg.TeamsHandler.List)
		api.GET("/teams/:id", cfg.TeamsHandler.GetByID)
		api.GET("/teams/:id/members", cfg.TeamsHandler.ListMembers)
		api.GET("/users/:id/teams", cfg.TeamsHandler.ListTeamsOfUser)
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.GET("/jobs/:id/events", cfg.JobsHandler.ListJobEvents)

		// Mutations submit sagas, all require an operator id
		mutating := api.Group("/")
		mutating.Use(cfg.OperatorMiddleware.RequireOperator())
		mutating.POST("/teams", cfg.TeamsHandler.Create)
		mutating.POST("/teams/:id/members", cfg.TeamsHandler.AddMembers)
		mutating.POST("/organizations/default-team", cfg.TeamsHandler.CreateDefault)
		mutating.POST("/organizations/default-team/members", cfg.TeamsHandler.AddMembersToDefault)
	}

	return router
}
