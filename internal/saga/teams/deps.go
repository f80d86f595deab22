package teams

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
)

// Job types submitted through the team service.
const (
	JobTypeCreateTeam        = "team.create"
	JobTypeCreateDefaultTeam = "team.create_default"
	JobTypeAddUsers          = "team.add_users"
	JobTypeAddUsersToDefault = "team.add_users_default"
)

// Validator is the slice of the validation service the sagas need.
type Validator interface {
	ValidateCreatedTeam(ctx context.Context, organizationID uuid.UUID, name string) error
	ValidateTeamAction(ctx context.Context, teamID uuid.UUID, action string) (*domain.Team, error)
}

// Notifier receives saga lifecycle events and turns them into the job event
// ledger callers poll.
type Notifier interface {
	JobBegin(ctx context.Context, jobID uuid.UUID, jobType string, data any)
	JobProcessed(ctx context.Context, jobID uuid.UUID, step string, data any)
	JobSucceeded(ctx context.Context, jobID uuid.UUID, result any)
	JobFailed(ctx context.Context, jobID uuid.UUID, cause error)
}
