package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error codes carried end-to-end: local validator -> saga state -> failure
// replies -> job events. Unknown causes are flattened to CodeInternal at every
// boundary so implementation detail never leaks to callers.
const (
	CodeReservedName         = "reserved_team_name"
	CodeDuplicateName        = "duplicate_team_name"
	CodeTeamNotFound         = "team_not_found"
	CodeDefaultTeamProtected = "default_team_protected"
	CodeAlreadyMember        = "already_member"
	CodeOrganizationInvalid  = "organization_invalid"
	CodeInternal             = "internal"
)

type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("team name %q is reserved", e.Name)
}
func (e *ReservedNameError) Code() string { return CodeReservedName }
func (e *ReservedNameError) Details() map[string]any {
	return map[string]any{"name": e.Name}
}

type DuplicateNameError struct {
	OrganizationID string
	Name           string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("team name %q already exists in organization %s", e.Name, e.OrganizationID)
}
func (e *DuplicateNameError) Code() string { return CodeDuplicateName }
func (e *DuplicateNameError) Details() map[string]any {
	return map[string]any{"organization_id": e.OrganizationID, "name": e.Name}
}

type NotFoundError struct {
	MissingIDs []uuid.UUID
}

func (e *NotFoundError) Error() string {
	ids := make([]string, 0, len(e.MissingIDs))
	for _, id := range e.MissingIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("team not found: %s", strings.Join(ids, ","))
}
func (e *NotFoundError) Code() string { return CodeTeamNotFound }
func (e *NotFoundError) Details() map[string]any {
	ids := make([]string, 0, len(e.MissingIDs))
	for _, id := range e.MissingIDs {
		ids = append(ids, id.String())
	}
	return map[string]any{"missing_ids": ids}
}

type DefaultTeamProtectedError struct {
	TeamID uuid.UUID
	Action string
}

func (e *DefaultTeamProtectedError) Error() string {
	return fmt.Sprintf("action %q is not allowed on default team %s", e.Action, e.TeamID)
}
func (e *DefaultTeamProtectedError) Code() string { return CodeDefaultTeamProtected }
func (e *DefaultTeamProtectedError) Details() map[string]any {
	return map[string]any{"team_id": e.TeamID.String(), "action": e.Action}
}

type AlreadyMemberError struct {
	TeamID           uuid.UUID
	DuplicateUserIDs []string
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("users already members of team %s: %s", e.TeamID, strings.Join(e.DuplicateUserIDs, ","))
}
func (e *AlreadyMemberError) Code() string { return CodeAlreadyMember }
func (e *AlreadyMemberError) Details() map[string]any {
	return map[string]any{"team_id": e.TeamID.String(), "duplicate_user_ids": e.DuplicateUserIDs}
}

// ParticipantError is a typed failure reply rehydrated on the orchestrator
// side. Code/Details round-trip through the reply envelope unchanged.
type ParticipantError struct {
	ErrCode    string
	Message    string
	ErrDetails map[string]any
}

func (e *ParticipantError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrCode
}
func (e *ParticipantError) Code() string            { return e.ErrCode }
func (e *ParticipantError) Details() map[string]any { return e.ErrDetails }

// Coded is implemented by every typed error above.
type Coded interface {
	error
	Code() string
	Details() map[string]any
}

// ErrorCode flattens err to its structured code, or CodeInternal when the
// error carries none.
func ErrorCode(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeInternal
}

// ErrorDetails returns the structured payload of a coded error, nil otherwise.
func ErrorDetails(err error) map[string]any {
	var c Coded
	if errors.As(err, &c) {
		return c.Details()
	}
	return nil
}

// IsLocalValidationError reports whether err belongs to the fail-fast family
// that never requires compensation.
func IsLocalValidationError(err error) bool {
	switch ErrorCode(err) {
	case CodeReservedName, CodeDuplicateName, CodeTeamNotFound, CodeDefaultTeamProtected:
		return true
	default:
		return false
	}
}
