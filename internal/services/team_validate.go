package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
)

// TeamValidator runs the synchronous checks a saga performs before emitting
// any command. Failures are typed errors; nothing here mutates the store.
type TeamValidator interface {
	// ValidateCreatedTeam rejects reserved names and (organization, name)
	// duplicates.
	ValidateCreatedTeam(ctx context.Context, organizationID uuid.UUID, name string) error

	// ValidateTeamAction loads the team and rejects restricted actions on
	// the organization's default team. The team is returned because the
	// caller usually needs its organization id next.
	ValidateTeamAction(ctx context.Context, teamID uuid.UUID, action string) (*domain.Team, error)
}

type teamValidator struct {
	log   *logger.Logger
	teams repos.TeamRepo
}

func NewTeamValidator(log *logger.Logger, teams repos.TeamRepo) TeamValidator {
	return &teamValidator{log: log.With("service", "TeamValidator"), teams: teams}
}

func (v *teamValidator) ValidateCreatedTeam(ctx context.Context, organizationID uuid.UUID, name string) error {
	if domain.IsReservedTeamName(name) {
		return &domain.ReservedNameError{Name: name}
	}
	existing, err := v.teams.GetByOrganizationAndName(dbctx.Context{Ctx: ctx}, organizationID.String(), name)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.DuplicateNameError{OrganizationID: organizationID.String(), Name: name}
	}
	return nil
}

func (v *teamValidator) ValidateTeamAction(ctx context.Context, teamID uuid.UUID, action string) (*domain.Team, error) {
	team, err := v.teams.GetByID(dbctx.Context{Ctx: ctx}, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, &domain.NotFoundError{MissingIDs: []uuid.UUID{teamID}}
	}
	if team.IsDefault && restrictedOnDefault(action) {
		return nil, &domain.DefaultTeamProtectedError{TeamID: teamID, Action: action}
	}
	return team, nil
}

// The default team is system managed. Membership there is driven by the
// default-seeding path, never by the user-facing actions.
func restrictedOnDefault(action string) bool {
	switch action {
	case domain.ActionUpdateProfile, domain.ActionDelete, domain.ActionAddUsers, domain.ActionRemoveUsers:
		return true
	default:
		return false
	}
}
