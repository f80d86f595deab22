package teams

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/saga"
)

// CreateTeamState is the private payload of one create-team saga instance.
type CreateTeamState struct {
	OperatorID     string    `json:"operator_id"`
	TeamID         uuid.UUID `json:"team_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	MemberUserIDs  []string  `json:"member_user_ids"`

	Result *saga.TeamWithMembersReply `json:"result,omitempty"`
}

// NewCreateTeamSaga validates the name locally, confirms the organization and
// users exist, then asks the team participant to create the team with its
// seed memberships. Only the creation step is compensable.
func NewCreateTeamSaga(validator Validator, notifier Notifier) *saga.Definition {
	return &saga.Definition{
		SagaType: JobTypeCreateTeam,
		OnBegin: func(ctx context.Context, jobID uuid.UUID, state any) {
			s := state.(*CreateTeamState)
			notifier.JobBegin(ctx, jobID, JobTypeCreateTeam, map[string]any{
				"team_id":         s.TeamID,
				"organization_id": s.OrganizationID,
				"name":            s.Name,
			})
		},
		OnStepProcessed: func(ctx context.Context, jobID uuid.UUID, stepName string, state any) {
			notifier.JobProcessed(ctx, jobID, stepName, nil)
		},
		OnSucceeded: func(ctx context.Context, jobID uuid.UUID, state any) {
			notifier.JobSucceeded(ctx, jobID, state.(*CreateTeamState).Result)
		},
		OnFailed: func(ctx context.Context, jobID uuid.UUID, state any, cause error) {
			notifier.JobFailed(ctx, jobID, cause)
		},
		Steps: []saga.Step{
			{Local: &saga.LocalStep{
				Name: "validate_team",
				Invoke: func(ctx context.Context, state any) error {
					s := state.(*CreateTeamState)
					return validator.ValidateCreatedTeam(ctx, s.OrganizationID, s.Name)
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "validate_organization",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*CreateTeamState)
					return saga.NewCommand(saga.KindValidateOrganizationAndUsers, saga.ChannelOrganization, nil,
						saga.ValidateOrganizationAndUsersCmd{
							OrganizationID: s.OrganizationID,
							UserIDs:        s.MemberUserIDs,
						})
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "create_team_and_seed_members",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*CreateTeamState)
					return saga.NewCommand(saga.KindCreateTeamAndSeedMembersExec, saga.ChannelTeam, saga.TeamLock(s.TeamID),
						saga.CreateTeamAndSeedMembersCmd{
							OperatorID:     s.OperatorID,
							TeamID:         s.TeamID,
							OrganizationID: s.OrganizationID,
							Name:           s.Name,
							Description:    s.Description,
							MemberUserIDs:  s.MemberUserIDs,
						})
				},
				OnSuccess: func(state any, rep saga.Reply) error {
					s := state.(*CreateTeamState)
					var result saga.TeamWithMembersReply
					if err := json.Unmarshal(rep.Payload, &result); err != nil {
						return err
					}
					s.Result = &result
					return nil
				},
				Compensation: func(state any) (saga.Command, bool) {
					s := state.(*CreateTeamState)
					cmd, err := saga.NewCommand(saga.KindCreateTeamAndSeedMembersUndo, saga.ChannelTeam, saga.TeamLock(s.TeamID),
						saga.UndoCreateTeamCmd{TeamID: s.TeamID})
					if err != nil {
						return saga.Command{}, false
					}
					return cmd, true
				},
			}},
		},
	}
}
