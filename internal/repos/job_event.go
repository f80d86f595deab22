package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
)

type JobEventRepo interface {
	Append(dbc dbctx.Context, rows []*domain.JobRunEvent) ([]*domain.JobRunEvent, error)
	ListByJobID(dbc dbctx.Context, jobID uuid.UUID) ([]*domain.JobRunEvent, error)
	CountByJobIDAndKind(dbc dbctx.Context, jobID uuid.UUID, kind string) (int64, error)
}

type jobEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobEventRepo(db *gorm.DB, baseLog *logger.Logger) JobEventRepo {
	return &jobEventRepo{db: db, log: baseLog.With("repo", "JobEventRepo")}
}

func (r *jobEventRepo) Append(dbc dbctx.Context, rows []*domain.JobRunEvent) ([]*domain.JobRunEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.JobRunEvent{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *jobEventRepo) ListByJobID(dbc dbctx.Context, jobID uuid.UUID) ([]*domain.JobRunEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.JobRunEvent
	if jobID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobEventRepo) CountByJobIDAndKind(dbc dbctx.Context, jobID uuid.UUID, kind string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	err := t.WithContext(dbc.Ctx).
		Model(&domain.JobRunEvent{}).
		Where("job_id = ? AND kind = ?", jobID, kind).
		Count(&count).Error
	return count, err
}
