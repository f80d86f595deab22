package teams

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

// AddUsersState is the private payload of one add-users saga instance.
// OrganizationID is empty until the local validation step loads the team.
type AddUsersState struct {
	OperatorID     string    `json:"operator_id"`
	TeamID         uuid.UUID `json:"team_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberUserIDs  []string  `json:"member_user_ids"`

	Result *saga.MembershipsReply `json:"result,omitempty"`
}

func (s *AddUsersState) membershipIDs() []uuid.UUID {
	if s.Result == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(s.Result.Memberships))
	for _, m := range s.Result.Memberships {
		out = append(out, m.ID)
	}
	return out
}

// NewAddUsersSaga loads and checks the team locally, remembering its
// organization id, validates the organization and users remotely, then adds
// the members. Compensation deletes exactly the membership rows this
// instance inserted.
func NewAddUsersSaga(validator Validator, notifier Notifier) *saga.Definition {
	return &saga.Definition{
		SagaType: JobTypeAddUsers,
		OnBegin: func(ctx context.Context, jobID uuid.UUID, state any) {
			s := state.(*AddUsersState)
			notifier.JobBegin(ctx, jobID, JobTypeAddUsers, map[string]any{
				"team_id":         s.TeamID,
				"member_user_ids": s.MemberUserIDs,
			})
		},
		OnStepProcessed: func(ctx context.Context, jobID uuid.UUID, stepName string, state any) {
			notifier.JobProcessed(ctx, jobID, stepName, nil)
		},
		OnSucceeded: func(ctx context.Context, jobID uuid.UUID, state any) {
			notifier.JobSucceeded(ctx, jobID, state.(*AddUsersState).Result)
		},
		OnFailed: func(ctx context.Context, jobID uuid.UUID, state any, cause error) {
			notifier.JobFailed(ctx, jobID, cause)
		},
		Steps: []saga.Step{
			{Local: &saga.LocalStep{
				Name: "validate_team",
				Invoke: func(ctx context.Context, state any) error {
					s := state.(*AddUsersState)
					team, err := validator.ValidateTeamAction(ctx, s.TeamID, domain.ActionAddUsers)
					if err != nil {
						return err
					}
					orgID, err := uuid.Parse(team.OrganizationID)
					if err != nil {
						return err
					}
					s.OrganizationID = orgID
					return nil
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "validate_organization",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*AddUsersState)
					return saga.NewCommand(saga.KindValidateOrganizationAndUsers, saga.ChannelOrganization, nil,
						saga.ValidateOrganizationAndUsersCmd{
							OrganizationID: s.OrganizationID,
							UserIDs:        s.MemberUserIDs,
						})
				},
			}},
			{Remote: &saga.RemoteStep{
				Name: "add_members",
				BuildCommand: func(state any) (saga.Command, error) {
					s := state.(*AddUsersState)
					return saga.NewCommand(saga.KindAddMembersExec, saga.ChannelTeam, saga.TeamLock(s.TeamID),
						saga.AddMembersCmd{
							OperatorID:    s.OperatorID,
							TeamID:        s.TeamID,
							MemberUserIDs: s.MemberUserIDs,
						})
				},
				OnSuccess: func(state any, rep saga.Reply) error {
					s := state.(*AddUsersState)
					var result saga.MembershipsReply
					if err := json.Unmarshal(rep.Payload, &result); err != nil {
						return err
					}
					s.Result = &result
					return nil
				},
				Compensation: func(state any) (saga.Command, bool) {
					s := state.(*AddUsersState)
					ids := s.membershipIDs()
					if len(ids) == 0 {
						return saga.Command{}, false
					}
					cmd, err := saga.NewCommand(saga.KindAddMembersUndo, saga.ChannelTeam, saga.TeamLock(s.TeamID),
						saga.UndoAddMembersCmd{TeamID: s.TeamID, MembershipIDs: ids})
					if err != nil {
						return saga.Command{}, false
					}
					return cmd, true
				},
			}},
		},
	}
}
