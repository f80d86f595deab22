package app

import (
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/middleware"
)

type Middleware struct {
	Operator *middleware.OperatorMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Operator: middleware.NewOperatorMiddleware(log),
	}
}
