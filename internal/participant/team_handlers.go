package participant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

// TeamHandlers executes team-channel commands. Every mutation runs in one
// transaction under the aggregate lock; undo commands are idempotent so the
// fabric may deliver them more than once.
type TeamHandlers struct {
	log         *logger.Logger
	db          *gorm.DB
	teams       repos.TeamRepo
	memberships repos.TeamMembershipRepo
	locks       *saga.LockRegistry
}

func NewTeamHandlers(log *logger.Logger, db *gorm.DB, teams repos.TeamRepo, memberships repos.TeamMembershipRepo, locks *saga.LockRegistry) *TeamHandlers {
	return &TeamHandlers{
		log:         log.With("component", "team_handlers"),
		db:          db,
		teams:       teams,
		memberships: memberships,
		locks:       locks,
	}
}

func (h *TeamHandlers) Channel() string { return saga.ChannelTeam }

func (h *TeamHandlers) Handle(ctx context.Context, cmd saga.Command) (rep saga.Reply) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("team command handler panicked", "kind", cmd.Kind, "panic", r)
			rep = saga.FailureReply(cmd, fmt.Errorf("panic: %v", r))
		}
	}()

	if cmd.Lock != nil {
		release := h.locks.Acquire(cmd.Lock.Key())
		defer release()
	}

	var err error
	var payload any
	switch cmd.Kind {
	case saga.KindCreateTeamAndSeedMembersExec:
		payload, err = h.createTeam(ctx, cmd)
	case saga.KindCreateTeamAndSeedMembersUndo, saga.KindCreateDefaultTeamUndo:
		err = h.undoCreateTeam(ctx, cmd)
	case saga.KindCreateDefaultTeamExec:
		payload, err = h.createDefaultTeam(ctx, cmd)
	case saga.KindAddMembersExec:
		payload, err = h.addMembers(ctx, cmd)
	case saga.KindAddMembersUndo:
		err = h.undoAddMembers(ctx, cmd)
	case saga.KindAddMembersToDefaultExec:
		payload, err = h.addMembersToDefault(ctx, cmd)
	case saga.KindValidateTeamsExist:
		err = h.validateTeamsExist(ctx, cmd)
	default:
		err = fmt.Errorf("unknown team command kind %q", cmd.Kind)
	}
	if err != nil {
		return saga.FailureReply(cmd, err)
	}
	return saga.SuccessReply(cmd, payload)
}

func (h *TeamHandlers) createTeam(ctx context.Context, cmd saga.Command) (*saga.TeamWithMembersReply, error) {
	var in saga.CreateTeamAndSeedMembersCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return nil, err
	}
	team := &domain.Team{
		ID:             in.TeamID,
		OrganizationID: in.OrganizationID.String(),
		Name:           in.Name,
		Description:    in.Description,
		IsDefault:      false,
	}
	return h.createTeamWithMembers(ctx, team, in.MemberUserIDs)
}

func (h *TeamHandlers) createDefaultTeam(ctx context.Context, cmd saga.Command) (*saga.TeamWithMembersReply, error) {
	var in saga.CreateDefaultTeamCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return nil, err
	}
	team := &domain.Team{
		ID:             in.TeamID,
		OrganizationID: in.OrganizationID.String(),
		Name:           domain.ReservedTeamNameDefault,
		Description:    "Default team for organization " + in.OrganizationID.String(),
		IsDefault:      true,
	}
	return h.createTeamWithMembers(ctx, team, in.MemberUserIDs)
}

func (h *TeamHandlers) createTeamWithMembers(ctx context.Context, team *domain.Team, memberUserIDs []string) (*saga.TeamWithMembersReply, error) {
	out := &saga.TeamWithMembersReply{}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := h.teams.GetByOrganizationAndName(dbc, team.OrganizationID, team.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return &domain.DuplicateNameError{OrganizationID: team.OrganizationID, Name: team.Name}
		}

		now := time.Now().UTC()
		team.CreatedAt = now
		team.UpdatedAt = now
		if _, err := h.teams.Create(dbc, []*domain.Team{team}); err != nil {
			return err
		}

		rows := make([]*domain.TeamMembership, 0, len(memberUserIDs))
		for _, userID := range dedupe(memberUserIDs) {
			rows = append(rows, &domain.TeamMembership{
				ID:        uuid.New(),
				TeamID:    team.ID,
				UserID:    userID,
				CreatedAt: now,
			})
		}
		if _, err := h.memberships.Create(dbc, rows); err != nil {
			return err
		}

		out.TeamID = team.ID
		out.OrganizationID = uuid.MustParse(team.OrganizationID)
		out.Name = team.Name
		out.Memberships = membershipViews(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// undoCreateTeam removes the team and its memberships. A team that was never
// created, or was already undone, is a success.
func (h *TeamHandlers) undoCreateTeam(ctx context.Context, cmd saga.Command) error {
	var in saga.UndoCreateTeamCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return err
	}
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return h.teams.DeleteCascade(dbctx.Context{Ctx: ctx, Tx: tx}, in.TeamID)
	})
}

func (h *TeamHandlers) addMembers(ctx context.Context, cmd saga.Command) (*saga.MembershipsReply, error) {
	var in saga.AddMembersCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return nil, err
	}
	return h.insertMembers(ctx, in.TeamID, in.MemberUserIDs, false)
}

// addMembersToDefault resolves the organization's default team first, then
// inserts skipping users already present. Seeding the default team is a
// repeatable operation.
func (h *TeamHandlers) addMembersToDefault(ctx context.Context, cmd saga.Command) (*saga.MembershipsReply, error) {
	var in saga.AddMembersToDefaultTeamCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return nil, err
	}
	def, err := h.teams.GetDefaultByOrganization(dbctx.Context{Ctx: ctx}, in.OrganizationID.String())
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &domain.ParticipantError{
			ErrCode:    domain.CodeTeamNotFound,
			Message:    "organization has no default team",
			ErrDetails: map[string]any{"organization_id": in.OrganizationID.String()},
		}
	}
	return h.insertMembers(ctx, def.ID, in.MemberUserIDs, true)
}

func (h *TeamHandlers) insertMembers(ctx context.Context, teamID uuid.UUID, userIDs []string, skipExisting bool) (*saga.MembershipsReply, error) {
	out := &saga.MembershipsReply{TeamID: teamID}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		team, err := h.teams.GetByID(dbc, teamID)
		if err != nil {
			return err
		}
		if team == nil {
			return &domain.NotFoundError{MissingIDs: []uuid.UUID{teamID}}
		}

		userIDs = dedupe(userIDs)
		existing, err := h.memberships.GetByTeamAndUserIDs(dbc, teamID, userIDs)
		if err != nil {
			return err
		}
		taken := map[string]bool{}
		for _, m := range existing {
			taken[m.UserID] = true
		}
		if len(taken) > 0 && !skipExisting {
			dups := make([]string, 0, len(taken))
			for _, userID := range userIDs {
				if taken[userID] {
					dups = append(dups, userID)
				}
			}
			return &domain.AlreadyMemberError{TeamID: teamID, DuplicateUserIDs: dups}
		}

		now := time.Now().UTC()
		rows := make([]*domain.TeamMembership, 0, len(userIDs))
		for _, userID := range userIDs {
			if taken[userID] {
				continue
			}
			rows = append(rows, &domain.TeamMembership{
				ID:        uuid.New(),
				TeamID:    teamID,
				UserID:    userID,
				CreatedAt: now,
			})
		}
		if _, err := h.memberships.Create(dbc, rows); err != nil {
			return err
		}
		out.Memberships = membershipViews(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *TeamHandlers) undoAddMembers(ctx context.Context, cmd saga.Command) error {
	var in saga.UndoAddMembersCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return err
	}
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return h.memberships.DeleteByIDs(dbctx.Context{Ctx: ctx, Tx: tx}, in.MembershipIDs)
	})
}

func (h *TeamHandlers) validateTeamsExist(ctx context.Context, cmd saga.Command) error {
	var in saga.ValidateTeamsExistCmd
	if err := json.Unmarshal(cmd.Payload, &in); err != nil {
		return err
	}
	found, err := h.teams.GetByIDs(dbctx.Context{Ctx: ctx}, in.TeamIDs)
	if err != nil {
		return err
	}
	have := map[uuid.UUID]bool{}
	for _, t := range found {
		have[t.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range in.TeamIDs {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.NotFoundError{MissingIDs: missing}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func membershipViews(rows []*domain.TeamMembership) []saga.MembershipView {
	out := make([]saga.MembershipView, 0, len(rows))
	for _, m := range rows {
		out = append(out, saga.MembershipView{ID: m.ID, TeamID: m.TeamID, UserID: m.UserID})
	}
	return out
}
