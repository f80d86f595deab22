package participant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

// OrgHandlers is the in-process stand-in for the organization service, used
// when the whole system runs in one process. In a split deployment the
// organization channel goes over the redis bus instead and this handler is
// simply not registered.
type OrgHandlers struct {
	log *logger.Logger

	// KnownOrganizations, when non-nil, restricts which organization ids
	// validate. Nil means any non-zero id is accepted.
	KnownOrganizations map[uuid.UUID]bool

	// KnownUsers, when non-nil, restricts which user ids validate.
	KnownUsers map[string]bool
}

func NewOrgHandlers(log *logger.Logger) *OrgHandlers {
	return &OrgHandlers{log: log.With("component", "org_handlers")}
}

func (h *OrgHandlers) Channel() string { return saga.ChannelOrganization }

func (h *OrgHandlers) Handle(ctx context.Context, cmd saga.Command) (rep saga.Reply) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("org command handler panicked", "kind", cmd.Kind, "panic", r)
			rep = saga.FailureReply(cmd, fmt.Errorf("panic: %v", r))
		}
	}()

	switch cmd.Kind {
	case saga.KindValidateOrganizationAndUsers:
		if err := h.validate(cmd); err != nil {
			return saga.FailureReply(cmd, err)
		}
		return saga.SuccessReply(cmd, nil)
	default:
		return saga.FailureReply(cmd, fmt.Errorf("unknown organization command kind %q", cmd.Kind))
	}
}

func (h *OrgHandlers) validate(cmd saga.Command) error {
	var in saga.ValidateOrganizationAndUsersCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return err
	}
	if in.OrganizationID == uuid.Nil {
		return &domain.ParticipantError{
			ErrCode: domain.CodeOrganizationInvalid,
			Message: "organization id is required",
		}
	}
	if h.KnownOrganizations != nil && !h.KnownOrganizations[in.OrganizationID] {
		return &domain.ParticipantError{
			ErrCode:    domain.CodeOrganizationInvalid,
			Message:    "organization does not exist",
			ErrDetails: map[string]any{"organization_id": in.OrganizationID.String()},
		}
	}
	var unknown []string
	for _, userID := range in.UserIDs {
		if userID == "" {
			return &domain.ParticipantError{
				ErrCode: domain.CodeOrganizationInvalid,
				Message: "user ids must be non-empty",
			}
		}
		if h.KnownUsers != nil && !h.KnownUsers[userID] {
			unknown = append(unknown, userID)
		}
	}
	if len(unknown) > 0 {
		return &domain.ParticipantError{
			ErrCode:    domain.CodeOrganizationInvalid,
			Message:    "users do not exist in organization",
			ErrDetails: map[string]any{"unknown_user_ids": unknown},
		}
	}
	return nil
}
