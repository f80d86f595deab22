package saga

import (
	"github.com/google/uuid"
)

// Command kinds the team participant executes.
const (
	KindCreateTeamAndSeedMembersExec = "team.create_and_seed_members.exec"
	KindCreateTeamAndSeedMembersUndo = "team.create_and_seed_members.undo"

	KindCreateDefaultTeamExec = "team.create_default_and_seed_members.exec"
	KindCreateDefaultTeamUndo = "team.create_default_and_seed_members.undo"

	KindAddMembersExec = "team.add_members.exec"
	KindAddMembersUndo = "team.add_members.undo"

	KindAddMembersToDefaultExec = "team.add_members_default.exec"

	KindValidateTeamsExist = "team.validate_exist"
)

// Command kinds the organization participant executes.
const (
	KindValidateOrganizationAndUsers = "organization.validate_org_and_users"
)

type CreateTeamAndSeedMembersCmd struct {
	OperatorID     string    `json:"operator_id"`
	TeamID         uuid.UUID `json:"team_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	MemberUserIDs  []string  `json:"member_user_ids"`
}

type UndoCreateTeamCmd struct {
	TeamID uuid.UUID `json:"team_id"`
}

type CreateDefaultTeamCmd struct {
	OperatorID     string    `json:"operator_id"`
	TeamID         uuid.UUID `json:"team_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberUserIDs  []string  `json:"member_user_ids"`
}

type AddMembersCmd struct {
	OperatorID    string    `json:"operator_id"`
	TeamID        uuid.UUID `json:"team_id"`
	MemberUserIDs []string  `json:"member_user_ids"`
}

type UndoAddMembersCmd struct {
	TeamID        uuid.UUID   `json:"team_id"`
	MembershipIDs []uuid.UUID `json:"membership_ids"`
}

type AddMembersToDefaultTeamCmd struct {
	OperatorID     string    `json:"operator_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberUserIDs  []string  `json:"member_user_ids"`
}

type ValidateTeamsExistCmd struct {
	TeamIDs []uuid.UUID `json:"team_ids"`
}

type ValidateOrganizationAndUsersCmd struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserIDs        []string  `json:"user_ids"`
}

// Reply payloads.

type MembershipView struct {
	ID     uuid.UUID `json:"id"`
	TeamID uuid.UUID `json:"team_id"`
	UserID string    `json:"user_id"`
}

type TeamWithMembersReply struct {
	TeamID         uuid.UUID        `json:"team_id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	Name           string           `json:"name"`
	Memberships    []MembershipView `json:"memberships"`
}

type MembershipsReply struct {
	TeamID      uuid.UUID        `json:"team_id"`
	Memberships []MembershipView `json:"memberships"`
}
