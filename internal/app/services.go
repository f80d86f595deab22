package app

import (
	"context"

	"gorm.io/gorm"

	redisclient "github.com/yungbote/teamcore-backend/internal/clients/redis"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/participant"
	"github.com/yungbote/teamcore-backend/internal/saga"
	"github.com/yungbote/teamcore-backend/internal/services"
)

type Services struct {
	Validator services.TeamValidator
	Notifier  *services.TeamNotifier
	Team      services.TeamService
	Sweeper   *services.SagaSweeper

	Dispatcher *saga.Dispatcher
	Runner     *saga.Runner
	Locks      *saga.LockRegistry
	Bus        redisclient.SagaBus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	locks := saga.NewLockRegistry()
	dispatcher := saga.NewDispatcher(log)

	teamHandlers := participant.NewTeamHandlers(log, db, reposet.Team, reposet.TeamMembership, locks)
	dispatcher.Register(teamHandlers)

	var bus redisclient.SagaBus
	if cfg.RedisEnabled {
		b, err := redisclient.NewSagaBus(log)
		if err != nil {
			return Services{}, err
		}
		bus = b
		dispatcher.SetRemote(bus)
	}

	if cfg.OrgParticipantMode == "local" {
		dispatcher.Register(participant.NewOrgHandlers(log))
	}

	runner := saga.NewRunner(log, dispatcher, reposet.SagaRun, reposet.SagaAction)
	dispatcher.SetReplyHandler(runner)

	if bus != nil {
		err := bus.StartReplyForwarder(context.Background(), func(rep saga.Reply) {
			runner.HandleReply(context.Background(), rep)
		})
		if err != nil {
			return Services{}, err
		}
	}

	var broadcaster services.EventBroadcaster
	if bus != nil {
		broadcaster = bus
	}
	notifier := services.NewTeamNotifier(log, reposet.JobRun, reposet.JobEvent, broadcaster)
	validator := services.NewTeamValidator(log, reposet.Team)
	team := services.NewTeamService(log, reposet.Team, reposet.TeamMembership, reposet.JobRun, reposet.JobEvent, runner, validator, notifier)
	sweeper := services.NewSagaSweeper(log, db, reposet.SagaRun, reposet.SagaAction, reposet.JobRun, reposet.JobEvent)

	return Services{
		Validator:  validator,
		Notifier:   notifier,
		Team:       team,
		Sweeper:    sweeper,
		Dispatcher: dispatcher,
		Runner:     runner,
		Locks:      locks,
		Bus:        bus,
	}, nil
}
