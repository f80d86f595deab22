package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/participant"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

// recordingFabric counts what the runner actually sends before handing the
// command to the dispatcher.
type recordingFabric struct {
	inner saga.Fabric

	mu   sync.Mutex
	sent []string
}

func (f *recordingFabric) SendCommand(ctx context.Context, cmd saga.Command) error {
	f.mu.Lock()
	f.sent = append(f.sent, cmd.Kind)
	f.mu.Unlock()
	return f.inner.SendCommand(ctx, cmd)
}

func (f *recordingFabric) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

// serviceEnv wires the full single-process stack onto an in-memory store:
// repos, participants, dispatcher, runner, notifier, service.
type serviceEnv struct {
	db          *gorm.DB
	log         *logger.Logger
	teams       repos.TeamRepo
	memberships repos.TeamMembershipRepo
	jobs        repos.JobRunRepo
	events      repos.JobEventRepo
	sagaRuns    repos.SagaRunRepo
	sagaActions repos.SagaActionRepo
	org         *participant.OrgHandlers
	dispatcher  *saga.Dispatcher
	fabric      *recordingFabric
	service     TeamService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// one connection keeps the shared-cache store serialized under the
		// dispatcher's queue goroutines
		sqlDB.SetMaxOpenConns(1)
	}
	err = db.AutoMigrate(
		&domain.Team{},
		&domain.TeamMembership{},
		&domain.JobRun{},
		&domain.JobRunEvent{},
		&domain.SagaRun{},
		&domain.SagaAction{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	teamRepo := repos.NewTeamRepo(db, log)
	membershipRepo := repos.NewTeamMembershipRepo(db, log)
	jobRepo := repos.NewJobRunRepo(db, log)
	eventRepo := repos.NewJobEventRepo(db, log)
	sagaRunRepo := repos.NewSagaRunRepo(db, log)
	sagaActionRepo := repos.NewSagaActionRepo(db, log)

	locks := saga.NewLockRegistry()
	dispatcher := saga.NewDispatcher(log)
	t.Cleanup(dispatcher.Close)

	org := participant.NewOrgHandlers(log)
	dispatcher.Register(participant.NewTeamHandlers(log, db, teamRepo, membershipRepo, locks))
	dispatcher.Register(org)

	fabric := &recordingFabric{inner: dispatcher}
	runner := saga.NewRunner(log, fabric, sagaRunRepo, sagaActionRepo)
	dispatcher.SetReplyHandler(runner)

	notifier := NewTeamNotifier(log, jobRepo, eventRepo, nil)
	validator := NewTeamValidator(log, teamRepo)
	svc := NewTeamService(log, teamRepo, membershipRepo, jobRepo, eventRepo, runner, validator, notifier)

	return &serviceEnv{
		db:          db,
		log:         log,
		teams:       teamRepo,
		memberships: membershipRepo,
		jobs:        jobRepo,
		events:      eventRepo,
		sagaRuns:    sagaRunRepo,
		sagaActions: sagaActionRepo,
		org:         org,
		dispatcher:  dispatcher,
		fabric:      fabric,
		service:     svc,
	}
}

func (e *serviceEnv) waitForJob(t *testing.T, jobID uuid.UUID) *domain.JobRun {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := e.jobs.GetByID(dbctx.Context{Ctx: context.Background()}, jobID)
		if err != nil {
			t.Fatalf("GetByID job: %v", err)
		}
		if job != nil && job.Status != domain.JobStatusRunning {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal status", jobID)
	return nil
}

func (e *serviceEnv) jobEvents(t *testing.T, jobID uuid.UUID) []*domain.JobRunEvent {
	t.Helper()
	events, err := e.events.ListByJobID(dbctx.Context{Ctx: context.Background()}, jobID)
	if err != nil {
		t.Fatalf("ListByJobID: %v", err)
	}
	return events
}

func (e *serviceEnv) seedTeam(t *testing.T, orgID uuid.UUID, name string, isDefault bool) *domain.Team {
	t.Helper()
	now := time.Now().UTC()
	team := &domain.Team{
		ID:             uuid.New(),
		OrganizationID: orgID.String(),
		Name:           name,
		IsDefault:      isDefault,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := e.teams.Create(dbctx.Context{Ctx: context.Background()}, []*domain.Team{team}); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}
