package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
)

// EventBroadcaster fans job events out to other replicas. Nil broadcaster
// means single-process deployment; the database ledger is still written.
type EventBroadcaster interface {
	BroadcastEvent(ctx context.Context, topic string, payload any) error
}

// TeamNotifier turns saga lifecycle callbacks into the job_run_event ledger
// plus the terminal status flip on job_run.
type TeamNotifier struct {
	log    *logger.Logger
	jobs   repos.JobRunRepo
	events repos.JobEventRepo
	bus    EventBroadcaster
}

func NewTeamNotifier(log *logger.Logger, jobs repos.JobRunRepo, events repos.JobEventRepo, bus EventBroadcaster) *TeamNotifier {
	return &TeamNotifier{
		log:    log.With("service", "TeamNotifier"),
		jobs:   jobs,
		events: events,
		bus:    bus,
	}
}

func (n *TeamNotifier) JobBegin(ctx context.Context, jobID uuid.UUID, jobType string, data any) {
	n.append(ctx, jobID, jobType, domain.JobEventBegin, "", "", data)
}

func (n *TeamNotifier) JobProcessed(ctx context.Context, jobID uuid.UUID, step string, data any) {
	n.append(ctx, jobID, "", domain.JobEventProcessed, "", step, data)
}

func (n *TeamNotifier) JobSucceeded(ctx context.Context, jobID uuid.UUID, result any) {
	n.append(ctx, jobID, "", domain.JobEventSucceeded, "", "", result)
	updates := map[string]interface{}{"status": domain.JobStatusSucceeded}
	if raw := marshalJSON(result); raw != nil {
		updates["result"] = datatypes.JSON(raw)
	}
	if err := n.jobs.UpdateFields(dbctx.Context{Ctx: ctx}, jobID, updates); err != nil {
		n.log.Error("failed to mark job succeeded", "job_id", jobID, "error", err)
	}
}

func (n *TeamNotifier) JobFailed(ctx context.Context, jobID uuid.UUID, cause error) {
	code := domain.ErrorCode(cause)
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	n.append(ctx, jobID, "", domain.JobEventFailed, code, msg, domain.ErrorDetails(cause))
	if err := n.jobs.UpdateFields(dbctx.Context{Ctx: ctx}, jobID, map[string]interface{}{
		"status": domain.JobStatusFailed,
		"error":  msg,
	}); err != nil {
		n.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

func (n *TeamNotifier) append(ctx context.Context, jobID uuid.UUID, jobType, kind, code, message string, data any) {
	row := &domain.JobRunEvent{
		ID:        uuid.New(),
		JobID:     jobID,
		JobType:   jobType,
		Kind:      kind,
		Code:      code,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if raw := marshalJSON(data); raw != nil {
		row.Data = datatypes.JSON(raw)
	}
	if _, err := n.events.Append(dbctx.Context{Ctx: ctx}, []*domain.JobRunEvent{row}); err != nil {
		n.log.Error("failed to append job event", "job_id", jobID, "kind", kind, "error", err)
		return
	}
	if n.bus != nil {
		if err := n.bus.BroadcastEvent(ctx, "jobs", row); err != nil {
			n.log.Warn("failed to broadcast job event", "job_id", jobID, "kind", kind, "error", err)
		}
	}
}

func marshalJSON(v any) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
