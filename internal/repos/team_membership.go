package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
)

type MembershipSortType string

const (
	MembershipSortAddedAtAsc  MembershipSortType = "added_at_asc"
	MembershipSortAddedAtDesc MembershipSortType = "added_at_desc"
)

type TeamMembershipRepo interface {
	Create(dbc dbctx.Context, rows []*domain.TeamMembership) ([]*domain.TeamMembership, error)

	GetByTeamAndUserIDs(dbc dbctx.Context, teamID uuid.UUID, userIDs []string) ([]*domain.TeamMembership, error)
	ListByTeamID(dbc dbctx.Context, teamID uuid.UUID, sort MembershipSortType, limit, offset int) ([]*domain.TeamMembership, int64, error)
	ListByTeamIDs(dbc dbctx.Context, teamIDs []uuid.UUID) ([]*domain.TeamMembership, error)
	ListByUserID(dbc dbctx.Context, userID string, sort MembershipSortType, limit, offset int) ([]*domain.TeamMembership, int64, error)

	// DeleteByIDs is the AddMembers undo; ids already gone are skipped.
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type teamMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamMembershipRepo(db *gorm.DB, baseLog *logger.Logger) TeamMembershipRepo {
	return &teamMembershipRepo{db: db, log: baseLog.With("repo", "TeamMembershipRepo")}
}

func (r *teamMembershipRepo) Create(dbc dbctx.Context, rows []*domain.TeamMembership) ([]*domain.TeamMembership, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.TeamMembership{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *teamMembershipRepo) GetByTeamAndUserIDs(dbc dbctx.Context, teamID uuid.UUID, userIDs []string) ([]*domain.TeamMembership, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.TeamMembership
	if teamID == uuid.Nil || len(userIDs) == 0 {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("team_id = ? AND user_id IN ?", teamID, userIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamMembershipRepo) ListByTeamID(dbc dbctx.Context, teamID uuid.UUID, sort MembershipSortType, limit, offset int) ([]*domain.TeamMembership, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&domain.TeamMembership{}).Where("team_id = ?", teamID)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order(membershipOrderClause(sort))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var out []*domain.TeamMembership
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *teamMembershipRepo) ListByTeamIDs(dbc dbctx.Context, teamIDs []uuid.UUID) ([]*domain.TeamMembership, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.TeamMembership
	if len(teamIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("team_id IN ?", teamIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamMembershipRepo) ListByUserID(dbc dbctx.Context, userID string, sort MembershipSortType, limit, offset int) ([]*domain.TeamMembership, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&domain.TeamMembership{}).Where("user_id = ?", userID)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order(membershipOrderClause(sort))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var out []*domain.TeamMembership
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *teamMembershipRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&domain.TeamMembership{}).Error
}

func membershipOrderClause(sort MembershipSortType) string {
	if sort == MembershipSortAddedAtAsc {
		return "created_at ASC"
	}
	return "created_at DESC"
}
