package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team is the aggregate root. Memberships are exclusively owned: deleting a
// team removes its membership rows in the same transaction.
type Team struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;size:100;not null;uniqueIndex:idx_teams_org_name,priority:1;index" json:"organization_id"`
	Name           string    `gorm:"column:name;size:255;not null;uniqueIndex:idx_teams_org_name,priority:2" json:"name"`
	Description    string    `gorm:"column:description" json:"description,omitempty"`
	IsDefault      bool      `gorm:"column:is_default;not null;index" json:"is_default"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	Memberships []TeamMembership `gorm:"foreignKey:TeamID" json:"memberships,omitempty"`
}

func (Team) TableName() string { return "teams" }

type TeamMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_membership_team_user,priority:1;index" json:"team_id"`
	UserID    string    `gorm:"column:user_id;size:100;not null;uniqueIndex:idx_team_membership_team_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (TeamMembership) TableName() string { return "team_membership" }

// Reserved team names cannot be used for user-created teams. "default" is the
// name the default-team creation path assigns.
const ReservedTeamNameDefault = "default"

var ReservedTeamNames = []string{ReservedTeamNameDefault, "admin", "everyone"}

func IsReservedTeamName(name string) bool {
	for _, r := range ReservedTeamNames {
		if name == r {
			return true
		}
	}
	return false
}

// Actions checked against the default-team protection rule.
const (
	ActionUpdateProfile = "update"
	ActionDelete        = "delete"
	ActionAddUsers      = "addUsers"
	ActionRemoveUsers   = "removeUsers"
)
