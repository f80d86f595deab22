package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobRun is the synchronous handle returned by the begin operations. Progress
// and outcome arrive asynchronously on the job_run_event ledger.
type JobRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OperatorID string         `gorm:"column:operator_id;size:100;not null;index" json:"operator_id"`
	JobType    string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result     datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }

// JobRunEvent is an append-only ledger of saga progress for one job.
// This is the canonical timeline callers poll for status.
type JobRunEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	JobType   string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Kind      string         `gorm:"column:kind;not null;index" json:"kind"`
	Code      string         `gorm:"column:code" json:"code,omitempty"`
	Message   string         `gorm:"column:message;type:text" json:"message,omitempty"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (JobRunEvent) TableName() string { return "job_run_event" }

// SagaRun is the durable header row for one saga instance. State is the
// instance's private payload snapshot; it stops changing once Status reaches a
// terminal value.
type SagaRun struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"job_id"`
	SagaType string    `gorm:"column:saga_type;not null;index" json:"saga_type"`

	// running|succeeded|failed|compensating|compensated
	Status string `gorm:"column:status;not null;index" json:"status"`

	State datatypes.JSON `gorm:"column:state;type:jsonb" json:"state"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (SagaRun) TableName() string { return "saga_run" }

// SagaAction is a durable compensation record for one completed step.
// Appended when a compensable step succeeds, executed in reverse seq order
// when a later step fails.
type SagaAction struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SagaID uuid.UUID `gorm:"type:uuid;not null;index:idx_saga_action_saga_seq,unique,priority:1;index" json:"saga_id"`
	Seq    int64     `gorm:"column:seq;type:bigint;not null;index:idx_saga_action_saga_seq,unique,priority:2" json:"seq"`

	Kind    string         `gorm:"column:kind;not null;index" json:"kind"`
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`

	// pending|done|failed
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SagaAction) TableName() string { return "saga_action" }

const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"

	JobEventBegin     = "begin"
	JobEventProcessed = "processed"
	JobEventSucceeded = "succeeded"
	JobEventFailed    = "failed"
)

const (
	SagaStatusRunning      = "running"
	SagaStatusSucceeded    = "succeeded"
	SagaStatusFailed       = "failed"
	SagaStatusCompensating = "compensating"
	SagaStatusCompensated  = "compensated"

	SagaActionStatusPending = "pending"
	SagaActionStatusDone    = "done"
	SagaActionStatusFailed  = "failed"
)

// AllowedSagaTransition is the status state machine shared by the runner and
// anything repairing stuck runs out of band.
func AllowedSagaTransition(from, to string) bool {
	switch from {
	case SagaStatusRunning:
		return to == SagaStatusSucceeded || to == SagaStatusFailed || to == SagaStatusCompensating
	case SagaStatusCompensating:
		return to == SagaStatusCompensated || to == SagaStatusFailed
	case SagaStatusSucceeded, SagaStatusFailed, SagaStatusCompensated:
		return false
	default:
		return false
	}
}
