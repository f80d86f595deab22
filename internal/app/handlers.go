package app

import (
	"github.com/yungbote/teamcore-backend/internal/handlers"
	"github.com/yungbote/teamcore-backend/internal/logger"
)

type Handlers struct {
	Teams *handlers.TeamsHandler
	Jobs  *handlers.JobsHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Teams: handlers.NewTeamsHandler(serviceset.Team),
		Jobs:  handlers.NewJobsHandler(serviceset.Team),
	}
}
