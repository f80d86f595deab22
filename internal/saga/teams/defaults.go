package teams

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/saga"
)

// CreateDefaultTeamState drives the organization-bootstrap path. There is no
// local name validation; the participant owns the "default" name.
type CreateDefaultTeamState struct {
	OperatorID     string    `json:"operator_id"`
	TeamID         uuid.UUID `json:"team_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberUserIDs  []string  `json:"member_user_ids"`

	Result *saga.TeamWithMembersReply `json:"result,omitempty"`
}

func NewCreateDefaultTeamSaga(notifier Notifier) *saga.Definition {
	return &saga.Definition{
		SagaType: JobTypeCreateDefaultTeam,
		OnBegin: func(ctx context.Context, jobID uuid.UUID, state any) {
			s := state.(*CreateDefaultTeamState)
			notifier.JobBegin(ctx, jobID, JobTypeCreateDefaultTeam, map[string]any{
				"team_id":         s.TeamID,
				"organization_id": s.OrganizationID,
			})
		},
		OnStepProcessed: func(ctx context.Context, jobID uuid.UUID, stepName string, state any) {
			notifier.JobProcessed(ctx, jobID, stepName, nil)
		},
		OnSucceeded: func(ctx context.Context, jobID uuid.UUID, state any) {
			notifier.JobSucceeded(ctx, jobID, state.(*CreateDefaultTeamState).Result)
		},
		OnFailed: func(ctx context.Context, jobID uuid.UUID, state any, cause error) {
			notifier.JobFailed(ctx, jobID, cause)
		},
		Steps: []saga.Step{
			{Remote: &saga.RemoteStep{
				Name: "validate_organization",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*CreateDefaultTeamState)
					return saga.NewCommand(saga.KindValidateOrganizationAndUsers, saga.ChannelOrganization, nil,
						saga.ValidateOrganizationAndUsersCmd{
							OrganizationID: s.OrganizationID,
							UserIDs:        s.MemberUserIDs,
						})
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "create_default_team",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*CreateDefaultTeamState)
					return saga.NewCommand(saga.KindCreateDefaultTeamExec, saga.ChannelTeam, saga.TeamLock(s.TeamID),
						saga.CreateDefaultTeamCmd{
							OperatorID:     s.OperatorID,
							TeamID:         s.TeamID,
							OrganizationID: s.OrganizationID,
							MemberUserIDs:  s.MemberUserIDs,
						})
				},
				OnSuccess: func(state any, rep saga.Reply) error {
					s := state.(*CreateDefaultTeamState)
					var result saga.TeamWithMembersReply
					if err := json.Unmarshal(rep.Payload, &result); err != nil {
						return err
					}
					s.Result = &result
					return nil
				},
				Compensation: func(state any) (saga.Command, bool) {
					s := state.(*CreateDefaultTeamState)
					cmd, err := saga.NewCommand(saga.KindCreateDefaultTeamUndo, saga.ChannelTeam, saga.TeamLock(s.TeamID),
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

// AddUsersToDefaultState targets whichever team is the organization's
// default; the participant resolves it.
type AddUsersToDefaultState struct {
	OperatorID     string    `json:"operator_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberUserIDs  []string  `json:"member_user_ids"`

	Result *saga.MembershipsReply `json:"result,omitempty"`
}

func NewAddUsersToDefaultSaga(notifier Notifier) *saga.Definition {
	return &saga.Definition{
		SagaType: JobTypeAddUsersToDefault,
		OnBegin: func(ctx context.Context, jobID uuid.UUID, state any) {
			s := state.(*AddUsersToDefaultState)
			notifier.JobBegin(ctx, jobID, JobTypeAddUsersToDefault, map[string]any{
				"organization_id": s.OrganizationID,
				"member_user_ids": s.MemberUserIDs,
			})
		},
		OnStepProcessed: func(ctx context.Context, jobID uuid.UUID, stepName string, state any) {
			notifier.JobProcessed(ctx, jobID, stepName, nil)
		},
		OnSucceeded: func(ctx context.Context, jobID uuid.UUID, state any) {
			notifier.JobSucceeded(ctx, jobID, state.(*AddUsersToDefaultState).Result)
		},
		OnFailed: func(ctx context.Context, jobID uuid.UUID, state any, cause error) {
			notifier.JobFailed(ctx, jobID, cause)
		},
		Steps: []saga.Step{
			{Remote: &saga.RemoteStep{
				Name: "validate_organization",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*AddUsersToDefaultState)
					return saga.NewCommand(saga.KindValidateOrganizationAndUsers, saga.ChannelOrganization, nil,
						saga.ValidateOrganizationAndUsersCmd{
							OrganizationID: s.OrganizationID,
							UserIDs:        s.MemberUserIDs,
						})
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "add_members_to_default",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*AddUsersToDefaultState)
					return saga.NewCommand(saga.KindAddMembersToDefaultExec, saga.ChannelTeam, nil,
						saga.AddMembersToDefaultTeamCmd{
							OperatorID:     s.OperatorID,
							OrganizationID: s.OrganizationID,
							MemberUserIDs:  s.MemberUserIDs,
						})
				},
				OnSuccess: func(state any, rep saga.Reply) error {
					s := state.(*AddUsersToDefaultState)
					var result saga.MembershipsReply
					if err := json.Unmarshal(rep.Payload, &result); err != nil {
						return err
					}
					s.Result = &result
					return nil
				},
				Compensation: func(state any) (saga.Command, bool) {
					s := state.(*AddUsersToDefaultState)
					if s.Result == nil || len(s.Result.Memberships) == 0 {
						return saga.Command{}, false
					}
					ids := make([]uuid.UUID, 0, len(s.Result.Memberships))
					for _, m := range s.Result.Memberships {
						ids = append(ids, m.ID)
					}
					cmd, err := saga.NewCommand(saga.KindAddMembersUndo, saga.ChannelTeam, saga.TeamLock(s.Result.TeamID),
						saga.UndoAddMembersCmd{TeamID: s.Result.TeamID, MembershipIDs: ids})
					if err != nil {
						return saga.Command{}, false
					}
					return cmd, true
				},
			}},
		},
	}
}
