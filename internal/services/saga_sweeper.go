package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
)

// SagaSweeper fails saga runs whose in-memory instance is gone, typically
// after a process restart. A run stuck in a non-terminal status past the
// cutoff is flipped to failed, its pending actions are marked failed, and
// the owning job is closed out on the ledger.
type SagaSweeper struct {
	log     *logger.Logger
	db      *gorm.DB
	runs    repos.SagaRunRepo
	actions repos.SagaActionRepo
	jobs    repos.JobRunRepo
	events  repos.JobEventRepo
}

func NewSagaSweeper(log *logger.Logger, db *gorm.DB, runs repos.SagaRunRepo, actions repos.SagaActionRepo, jobs repos.JobRunRepo, events repos.JobEventRepo) *SagaSweeper {
	return &SagaSweeper{
		log:     log.With("service", "SagaSweeper"),
		db:      db,
		runs:    runs,
		actions: actions,
		jobs:    jobs,
		events:  events,
	}
}

// Sweep fails runs stuck in running or compensating since before cutoff and
// returns how many it closed. The cutoff must be older than the longest saga
// this process expects to run, otherwise live instances get swept out from
// under the runner.
func (s *SagaSweeper) Sweep(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stuck, err := s.runs.ListByStatusBefore(dbctx.Context{Ctx: ctx},
		[]string{domain.SagaStatusRunning, domain.SagaStatusCompensating}, cutoff, limit)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, run := range stuck {
		if err := s.sweepOne(ctx, run.ID); err != nil {
			s.log.Error("failed to sweep saga run", "saga_id", run.ID, "error", err)
			continue
		}
		swept++
	}
	return swept, nil
}

func (s *SagaSweeper) sweepOne(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		run, err := s.runs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		// another sweeper or the runner itself may have finished it meanwhile
		if run == nil || !domain.AllowedSagaTransition(run.Status, domain.SagaStatusFailed) {
			return nil
		}
		if err := s.runs.UpdateFields(dbc, run.ID, map[string]interface{}{"status": domain.SagaStatusFailed}); err != nil {
			return err
		}

		acts, err := s.actions.ListBySagaIDDesc(dbc, run.ID)
		if err != nil {
			return err
		}
		for _, a := range acts {
			if a.Status != domain.SagaActionStatusPending {
				continue
			}
			if err := s.actions.UpdateFields(dbc, a.ID, map[string]interface{}{"status": domain.SagaActionStatusFailed}); err != nil {
				return err
			}
		}

		job, err := s.jobs.GetByID(dbc, run.JobID)
		if err != nil {
			return err
		}
		if job == nil || job.Status != domain.JobStatusRunning {
			return nil
		}
		if err := s.jobs.UpdateFields(dbc, job.ID, map[string]interface{}{
			"status": domain.JobStatusFailed,
			"error":  "saga run abandoned",
		}); err != nil {
			return err
		}
		event := &domain.JobRunEvent{
			ID:        uuid.New(),
			JobID:     job.ID,
			Kind:      domain.JobEventFailed,
			Code:      domain.CodeInternal,
			Message:   "saga run abandoned",
			CreatedAt: time.Now().UTC(),
		}
		_, err = s.events.Append(dbc, []*domain.JobRunEvent{event})
		return err
	})
}

// Run sweeps on a fixed interval until ctx ends.
func (s *SagaSweeper) Run(ctx context.Context, interval, stuckAfter time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx, time.Now().UTC().Add(-stuckAfter), 100)
			if err != nil {
				s.log.Error("saga sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("swept stuck saga runs", "count", n)
			}
		}
	}
}
