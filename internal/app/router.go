package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/teamcore-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		TeamsHandler:       handlerset.Teams,
		JobsHandler:        handlerset.Jobs,
		OperatorMiddleware: mw.Operator,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
