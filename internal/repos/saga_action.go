package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
)

type SagaActionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.SagaAction) ([]*domain.SagaAction, error)
	GetMaxSeq(dbc dbctx.Context, sagaID uuid.UUID) (int64, error)
	ListBySagaIDDesc(dbc dbctx.Context, sagaID uuid.UUID) ([]*domain.SagaAction, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type sagaActionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSagaActionRepo(db *gorm.DB, baseLog *logger.Logger) SagaActionRepo {
	return &sagaActionRepo{db: db, log: baseLog.With("repo", "SagaActionRepo")}
}

func (r *sagaActionRepo) Create(dbc dbctx.Context, rows []*domain.SagaAction) ([]*domain.SagaAction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.SagaAction{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sagaActionRepo) GetMaxSeq(dbc dbctx.Context, sagaID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxSeq *int64
	err := t.WithContext(dbc.Ctx).
		Model(&domain.SagaAction{}).
		Where("saga_id = ?", sagaID).
		Select("MAX(seq)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	if maxSeq == nil {
		return 0, nil
	}
	return *maxSeq, nil
}

func (r *sagaActionRepo) ListBySagaIDDesc(dbc dbctx.Context, sagaID uuid.UUID) ([]*domain.SagaAction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.SagaAction
	if sagaID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("saga_id = ?", sagaID).
		Order("seq DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sagaActionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.SagaAction{}).
		Where("id = ?", id).
		Updates(updates).Error
}
