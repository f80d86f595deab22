package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/repos"
)

type Repos struct {
	Team           repos.TeamRepo
	TeamMembership repos.TeamMembershipRepo
	JobRun         repos.JobRunRepo
	JobEvent       repos.JobEventRepo
	SagaRun        repos.SagaRunRepo
	SagaAction     repos.SagaActionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Team:           repos.NewTeamRepo(db, log),
		TeamMembership: repos.NewTeamMembershipRepo(db, log),
		JobRun:         repos.NewJobRunRepo(db, log),
		JobEvent:       repos.NewJobEventRepo(db, log),
		SagaRun:        repos.NewSagaRunRepo(db, log),
		SagaAction:     repos.NewSagaActionRepo(db, log),
	}
}
