package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
	"github.com/yungbote/teamcore-backend/internal/saga"
	"github.com/yungbote/teamcore-backend/internal/saga/teams"
)

type CreateTeamInput struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	MemberUserIDs  []string  `json:"member_user_ids"`
}

type TeamWithMembers struct {
	Team        *domain.Team             `json:"team"`
	Memberships []*domain.TeamMembership `json:"memberships"`
}

// TeamService is the application facade. Mutations submit a saga and return a
// job id immediately; local validation failures surface on the job's event
// ledger, not as a returned error. Queries hit the store directly.
type TeamService interface {
	BeginCreate(ctx context.Context, operatorID string, in CreateTeamInput) (uuid.UUID, error)
	BeginCreateDefault(ctx context.Context, operatorID string, organizationID uuid.UUID, memberUserIDs []string) (uuid.UUID, error)
	BeginAddUsers(ctx context.Context, operatorID string, teamID uuid.UUID, memberUserIDs []string) (uuid.UUID, error)
	BeginAddUsersToDefault(ctx context.Context, operatorID string, organizationID uuid.UUID, memberUserIDs []string) (uuid.UUID, error)

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	FindByIDWithMembers(ctx context.Context, id uuid.UUID) (*TeamWithMembers, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Team, error)
	List(ctx context.Context, filter repos.TeamListFilter, sort repos.TeamSortType, limit, offset int) ([]*domain.Team, int64, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMembership, error)
	ListTeamsOfUser(ctx context.Context, userID string) ([]*domain.Team, error)

	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.JobRun, error)
	ListJobEvents(ctx context.Context, jobID uuid.UUID) ([]*domain.JobRunEvent, error)
}

type teamService struct {
	log         *logger.Logger
	teams       repos.TeamRepo
	memberships repos.TeamMembershipRepo
	jobs        repos.JobRunRepo
	events      repos.JobEventRepo
	runner      *saga.Runner

	createDef        *saga.Definition
	createDefaultDef *saga.Definition
	addUsersDef      *saga.Definition
	addToDefaultDef  *saga.Definition
}

func NewTeamService(
	log *logger.Logger,
	teamRepo repos.TeamRepo,
	membershipRepo repos.TeamMembershipRepo,
	jobRepo repos.JobRunRepo,
	eventRepo repos.JobEventRepo,
	runner *saga.Runner,
	validator TeamValidator,
	notifier *TeamNotifier,
) TeamService {
	return &teamService{
		log:              log.With("service", "TeamService"),
		teams:            teamRepo,
		memberships:      membershipRepo,
		jobs:             jobRepo,
		events:           eventRepo,
		runner:           runner,
		createDef:        teams.NewCreateTeamSaga(validator, notifier),
		createDefaultDef: teams.NewCreateDefaultTeamSaga(notifier),
		addUsersDef:      teams.NewAddUsersSaga(validator, notifier),
		addToDefaultDef:  teams.NewAddUsersToDefaultSaga(notifier),
	}
}

func (s *teamService) BeginCreate(ctx context.Context, operatorID string, in CreateTeamInput) (uuid.UUID, error) {
	state := &teams.CreateTeamState{
		OperatorID:     operatorID,
		TeamID:         uuid.New(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		Description:    in.Description,
		MemberUserIDs:  in.MemberUserIDs,
	}
	return s.submit(ctx, operatorID, teams.JobTypeCreateTeam, s.createDef, state)
}

func (s *teamService) BeginCreateDefault(ctx context.Context, operatorID string, organizationID uuid.UUID, memberUserIDs []string) (uuid.UUID, error) {
	state := &teams.CreateDefaultTeamState{
		OperatorID:     operatorID,
		TeamID:         uuid.New(),
		OrganizationID: organizationID,
		MemberUserIDs:  memberUserIDs,
	}
	return s.submit(ctx, operatorID, teams.JobTypeCreateDefaultTeam, s.createDefaultDef, state)
}

func (s *teamService) BeginAddUsers(ctx context.Context, operatorID string, teamID uuid.UUID, memberUserIDs []string) (uuid.UUID, error) {
	state := &teams.AddUsersState{
		OperatorID:    operatorID,
		TeamID:        teamID,
		MemberUserIDs: memberUserIDs,
	}
	return s.submit(ctx, operatorID, teams.JobTypeAddUsers, s.addUsersDef, state)
}

func (s *teamService) BeginAddUsersToDefault(ctx context.Context, operatorID string, organizationID uuid.UUID, memberUserIDs []string) (uuid.UUID, error) {
	state := &teams.AddUsersToDefaultState{
		OperatorID:     operatorID,
		OrganizationID: organizationID,
		MemberUserIDs:  memberUserIDs,
	}
	return s.submit(ctx, operatorID, teams.JobTypeAddUsersToDefault, s.addToDefaultDef, state)
}

// submit creates the job handle and starts the saga. The job id is returned
// even when the saga fails its very first local step; that failure is already
// on the event ledger by the time Begin returns.
func (s *teamService) submit(ctx context.Context, operatorID, jobType string, def *saga.Definition, state any) (uuid.UUID, error) {
	now := time.Now().UTC()
	job := &domain.JobRun{
		ID:         uuid.New(),
		OperatorID: operatorID,
		JobType:    jobType,
		Status:     domain.JobStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if raw := marshalJSON(state); raw != nil {
		job.Payload = datatypes.JSON(raw)
	}
	if _, err := s.jobs.Create(dbctx.Context{Ctx: ctx}, []*domain.JobRun{job}); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.runner.Begin(ctx, job.ID, def, state); err != nil {
		s.log.Error("failed to start saga", "job_id", job.ID, "job_type", jobType, "error", err)
		s.closeJobOnStartFailure(ctx, job.ID, err)
		return uuid.Nil, err
	}
	return job.ID, nil
}

// closeJobOnStartFailure keeps the ledger terminal when the saga never
// started: no instance exists to fail the job later.
func (s *teamService) closeJobOnStartFailure(ctx context.Context, jobID uuid.UUID, cause error) {
	event := &domain.JobRunEvent{
		ID:        uuid.New(),
		JobID:     jobID,
		Kind:      domain.JobEventFailed,
		Code:      domain.CodeInternal,
		Message:   cause.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.events.Append(dbctx.Context{Ctx: ctx}, []*domain.JobRunEvent{event}); err != nil {
		s.log.Error("failed to append job event", "job_id", jobID, "error", err)
	}
	if err := s.jobs.UpdateFields(dbctx.Context{Ctx: ctx}, jobID, map[string]interface{}{
		"status": domain.JobStatusFailed,
		"error":  cause.Error(),
	}); err != nil {
		s.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

func (s *teamService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	return s.teams.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (s *teamService) FindByIDWithMembers(ctx context.Context, id uuid.UUID) (*TeamWithMembers, error) {
	team, err := s.teams.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, nil
	}
	members, err := s.memberships.ListByTeamIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return &TeamWithMembers{Team: team, Memberships: members}, nil
}

func (s *teamService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Team, error) {
	return s.teams.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
}

func (s *teamService) List(ctx context.Context, filter repos.TeamListFilter, sort repos.TeamSortType, limit, offset int) ([]*domain.Team, int64, error) {
	return s.teams.List(dbctx.Context{Ctx: ctx}, filter, sort, limit, offset)
}

func (s *teamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMembership, error) {
	team, err := s.teams.GetByID(dbctx.Context{Ctx: ctx}, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, &domain.NotFoundError{MissingIDs: []uuid.UUID{teamID}}
	}
	rows, _, err := s.memberships.ListByTeamID(dbctx.Context{Ctx: ctx}, teamID, repos.MembershipSortAddedAtAsc, 0, 0)
	return rows, err
}

func (s *teamService) ListTeamsOfUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	memberships, _, err := s.memberships.ListByUserID(dbctx.Context{Ctx: ctx}, userID, repos.MembershipSortAddedAtAsc, 0, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.TeamID)
	}
	return s.teams.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
}

func (s *teamService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.JobRun, error) {
	return s.jobs.GetByID(dbctx.Context{Ctx: ctx}, jobID)
}

func (s *teamService) ListJobEvents(ctx context.Context, jobID uuid.UUID) ([]*domain.JobRunEvent, error) {
	return s.events.ListByJobID(dbctx.Context{Ctx: ctx}, jobID)
}
