package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
)

type TeamSortType string

const (
	TeamSortCreatedAtAsc  TeamSortType = "created_at_asc"
	TeamSortCreatedAtDesc TeamSortType = "created_at_desc"
	TeamSortNameAsc       TeamSortType = "name_asc"
	TeamSortNameDesc      TeamSortType = "name_desc"
)

// TeamListFilter narrows List. Zero values mean "no filter".
type TeamListFilter struct {
	OrganizationID string
	IsDefault      *bool
	MemberUserIDs  []string
}

type TeamRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Team) ([]*domain.Team, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Team, error)
	GetByOrganizationAndName(dbc dbctx.Context, organizationID, name string) (*domain.Team, error)
	GetDefaultByOrganization(dbc dbctx.Context, organizationID string) (*domain.Team, error)

	List(dbc dbctx.Context, filter TeamListFilter, sort TeamSortType, limit, offset int) ([]*domain.Team, int64, error)

	// DeleteCascade removes the team row and all of its membership rows in
	// the caller's transaction. Missing team is not an error.
	DeleteCascade(dbc dbctx.Context, id uuid.UUID) error
}

type teamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return &teamRepo{db: db, log: baseLog.With("repo", "TeamRepo")}
}

func (r *teamRepo) Create(dbc dbctx.Context, rows []*domain.Team) ([]*domain.Team, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Team{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *teamRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *teamRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Team, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Team
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamRepo) GetByOrganizationAndName(dbc dbctx.Context, organizationID, name string) (*domain.Team, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domain.Team
	err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND name = ?", organizationID, name).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *teamRepo) GetDefaultByOrganization(dbc dbctx.Context, organizationID string) (*domain.Team, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domain.Team
	err := t.WithContext(dbc.Ctx).
		Where("organization_id = ? AND is_default = ?", organizationID, true).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *teamRepo) List(dbc dbctx.Context, filter TeamListFilter, sort TeamSortType, limit, offset int) ([]*domain.Team, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&domain.Team{})
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.IsDefault != nil {
		q = q.Where("is_default = ?", *filter.IsDefault)
	}
	if len(filter.MemberUserIDs) > 0 {
		q = q.Where("id IN (?)",
			t.WithContext(dbc.Ctx).
				Model(&domain.TeamMembership{}).
				Select("team_id").
				Where("user_id IN ?", filter.MemberUserIDs))
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order(orderClause(sort))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var out []*domain.Team
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *teamRepo) DeleteCascade(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).Where("team_id = ?", id).Delete(&domain.TeamMembership{}).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&domain.Team{}).Error
}

func orderClause(sort TeamSortType) string {
	switch sort {
	case TeamSortCreatedAtAsc:
		return "created_at ASC"
	case TeamSortNameAsc:
		return "name ASC, created_at DESC"
	case TeamSortNameDesc:
		return "name DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}
