package saga

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
)

// LocalStep runs inside the orchestrator process and never emits a command.
type LocalStep struct {
	Name   string
	Invoke func(ctx context.Context, state any) error
}

// RemoteStep sends a command to a participant and waits for its reply.
// Compensation, when present, is recorded once the step succeeds and is
// replayed in reverse order if a later step fails.
type RemoteStep struct {
	Name         string
	BuildCommand func(state any) (Command, error)
	OnSuccess    func(state any, rep Reply) error
	OnFailure    func(state any, rep Reply) error
	Compensation func(state any) (Command, bool)
}

type Step struct {
	Local  *LocalStep
	Remote *RemoteStep
}

// Definition describes one saga type: its ordered steps plus the lifecycle
// hooks the owning service uses to emit job events.
type Definition struct {
	SagaType        string
	Steps           []Step
	OnBegin         func(ctx context.Context, jobID uuid.UUID, state any)
	OnStepProcessed func(ctx context.Context, jobID uuid.UUID, stepName string, state any)
	OnSucceeded     func(ctx context.Context, jobID uuid.UUID, state any)
	OnFailed        func(ctx context.Context, jobID uuid.UUID, state any, cause error)
}

type pendingUndo struct {
	cmd      Command
	actionID uuid.UUID
}

type instance struct {
	mu           sync.Mutex
	id           uuid.UUID
	jobID        uuid.UUID
	def          *Definition
	state        any
	stepIdx      int
	waiting      bool
	expectedKind string
	comps        []pendingUndo
	compensating bool
	compIdx      int
	cause        error
	done         bool
}

// Runner drives saga instances step by step. Each instance persists a
// SagaRun row and one SagaAction row per remote command so the ledger
// survives the process; in-memory instances carry the hot path.
type Runner struct {
	log     *logger.Logger
	fabric  Fabric
	runs    repos.SagaRunRepo
	actions repos.SagaActionRepo

	mu     sync.Mutex
	active map[uuid.UUID]*instance
}

func NewRunner(log *logger.Logger, fabric Fabric, runs repos.SagaRunRepo, actions repos.SagaActionRepo) *Runner {
	return &Runner{
		log:     log.With("component", "saga_runner"),
		fabric:  fabric,
		runs:    runs,
		actions: actions,
		active:  map[uuid.UUID]*instance{},
	}
}

// Begin starts a new instance of def for jobID. The saga id doubles as the
// correlation id on every command the instance emits.
func (r *Runner) Begin(ctx context.Context, jobID uuid.UUID, def *Definition, state any) (uuid.UUID, error) {
	sagaID := uuid.New()
	now := time.Now().UTC()
	raw := marshalState(state)
	row := &domain.SagaRun{
		ID:        sagaID,
		JobID:     jobID,
		SagaType:  def.SagaType,
		Status:    domain.SagaStatusRunning,
		State:     raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.runs.Create(dbctx.Context{Ctx: ctx}, []*domain.SagaRun{row}); err != nil {
		return uuid.Nil, err
	}

	inst := &instance{id: sagaID, jobID: jobID, def: def, state: state}
	r.mu.Lock()
	r.active[sagaID] = inst
	r.mu.Unlock()

	if def.OnBegin != nil {
		def.OnBegin(ctx, jobID, state)
	}

	inst.mu.Lock()
	out, err := r.advanceLocked(ctx, inst)
	inst.mu.Unlock()
	if err != nil {
		return sagaID, err
	}
	r.send(ctx, inst, out)
	return sagaID, nil
}

// HandleReply correlates a participant reply back to its waiting instance.
// Replies for unknown correlation ids, or replies the instance is not
// waiting for, are logged and dropped.
func (r *Runner) HandleReply(ctx context.Context, rep Reply) {
	r.mu.Lock()
	inst, ok := r.active[rep.CorrelationID]
	r.mu.Unlock()
	if !ok {
		r.log.Warn("dropping reply for unknown saga", "correlation_id", rep.CorrelationID, "kind", rep.Kind)
		return
	}

	inst.mu.Lock()
	if inst.done || !inst.waiting || (inst.expectedKind != "" && rep.Kind != inst.expectedKind) {
		inst.mu.Unlock()
		r.log.Warn("dropping stale reply", "saga_id", inst.id, "kind", rep.Kind)
		return
	}
	inst.waiting = false
	inst.expectedKind = ""

	var out []Command
	var err error
	if inst.compensating {
		out, err = r.handleUndoReplyLocked(ctx, inst, rep)
	} else {
		out, err = r.handleStepReplyLocked(ctx, inst, rep)
	}
	inst.mu.Unlock()

	if err != nil {
		r.log.Error("saga reply handling failed", "saga_id", inst.id, "error", err)
	}
	r.send(ctx, inst, out)
}

func (r *Runner) handleStepReplyLocked(ctx context.Context, inst *instance, rep Reply) ([]Command, error) {
	step := inst.def.Steps[inst.stepIdx].Remote

	if rep.IsSuccess() {
		if step.OnSuccess != nil {
			if err := step.OnSuccess(inst.state, rep); err != nil {
				inst.cause = err
				return r.startCompensationLocked(ctx, inst)
			}
		}
		if step.Compensation != nil {
			if undo, ok := step.Compensation(inst.state); ok {
				actionID, err := r.recordAction(ctx, inst, undo)
				if err != nil {
					return nil, err
				}
				inst.comps = append(inst.comps, pendingUndo{cmd: undo, actionID: actionID})
			}
		}
		if inst.def.OnStepProcessed != nil {
			inst.def.OnStepProcessed(ctx, inst.jobID, step.Name, inst.state)
		}
		r.saveState(ctx, inst)
		inst.stepIdx++
		return r.advanceLocked(ctx, inst)
	}

	if step.OnFailure != nil {
		if err := step.OnFailure(inst.state, rep); err != nil {
			inst.cause = err
		}
	}
	if inst.cause == nil {
		inst.cause = rep.AsError()
	}
	return r.startCompensationLocked(ctx, inst)
}

// advanceLocked runs local steps and builds the next outbound command.
// Commands are returned, not sent, so the caller can release the instance
// mutex first; a synchronous fabric replying inline must not deadlock.
func (r *Runner) advanceLocked(ctx context.Context, inst *instance) ([]Command, error) {
	for inst.stepIdx < len(inst.def.Steps) {
		step := inst.def.Steps[inst.stepIdx]
		if step.Local != nil {
			if err := step.Local.Invoke(ctx, inst.state); err != nil {
				inst.cause = err
				return r.startCompensationLocked(ctx, inst)
			}
			if inst.def.OnStepProcessed != nil {
				inst.def.OnStepProcessed(ctx, inst.jobID, step.Local.Name, inst.state)
			}
			r.saveState(ctx, inst)
			inst.stepIdx++
			continue
		}

		cmd, err := step.Remote.BuildCommand(inst.state)
		if err != nil {
			inst.cause = err
			return r.startCompensationLocked(ctx, inst)
		}
		cmd.CorrelationID = inst.id
		inst.waiting = true
		inst.expectedKind = cmd.Kind
		return []Command{cmd}, nil
	}
	return nil, r.finishLocked(ctx, inst)
}

// startCompensationLocked flips the instance into compensation mode. With no
// recorded undos the saga fails immediately; otherwise undos replay newest
// first.
func (r *Runner) startCompensationLocked(ctx context.Context, inst *instance) ([]Command, error) {
	if len(inst.comps) == 0 {
		return nil, r.failLocked(ctx, inst, domain.SagaStatusFailed)
	}
	inst.compensating = true
	inst.compIdx = len(inst.comps) - 1
	r.transition(ctx, inst, domain.SagaStatusCompensating)
	return r.nextUndoLocked(inst), nil
}

func (r *Runner) nextUndoLocked(inst *instance) []Command {
	undo := inst.comps[inst.compIdx]
	cmd := undo.cmd
	cmd.CorrelationID = inst.id
	inst.waiting = true
	inst.expectedKind = cmd.Kind
	return []Command{cmd}
}

func (r *Runner) handleUndoReplyLocked(ctx context.Context, inst *instance, rep Reply) ([]Command, error) {
	undo := inst.comps[inst.compIdx]
	status := domain.SagaActionStatusDone
	if !rep.IsSuccess() {
		status = domain.SagaActionStatusFailed
		r.log.Error("compensation command failed", "saga_id", inst.id, "kind", rep.Kind, "code", rep.Code)
	}
	if err := r.actions.UpdateFields(dbctx.Context{Ctx: ctx}, undo.actionID, map[string]interface{}{"status": status}); err != nil {
		r.log.Error("failed to update saga action", "saga_id", inst.id, "error", err)
	}

	inst.compIdx--
	if inst.compIdx >= 0 {
		return r.nextUndoLocked(inst), nil
	}
	return nil, r.failLocked(ctx, inst, domain.SagaStatusCompensated)
}

func (r *Runner) finishLocked(ctx context.Context, inst *instance) error {
	inst.done = true
	r.transition(ctx, inst, domain.SagaStatusSucceeded)
	r.forget(inst.id)
	if inst.def.OnSucceeded != nil {
		inst.def.OnSucceeded(ctx, inst.jobID, inst.state)
	}
	return nil
}

func (r *Runner) failLocked(ctx context.Context, inst *instance, terminal string) error {
	inst.done = true
	r.transition(ctx, inst, terminal)
	r.forget(inst.id)
	if inst.def.OnFailed != nil {
		inst.def.OnFailed(ctx, inst.jobID, inst.state, inst.cause)
	}
	return nil
}

func (r *Runner) transition(ctx context.Context, inst *instance, to string) {
	run, err := r.runs.GetByID(dbctx.Context{Ctx: ctx}, inst.id)
	if err != nil || run == nil {
		r.log.Error("failed to load saga run for transition", "saga_id", inst.id, "to", to, "error", err)
		return
	}
	if !domain.AllowedSagaTransition(run.Status, to) {
		r.log.Warn("refusing illegal saga transition", "saga_id", inst.id, "from", run.Status, "to", to)
		return
	}
	updates := map[string]interface{}{"status": to, "state": marshalState(inst.state)}
	if err := r.runs.UpdateFields(dbctx.Context{Ctx: ctx}, inst.id, updates); err != nil {
		r.log.Error("failed to persist saga transition", "saga_id", inst.id, "to", to, "error", err)
	}
}

func (r *Runner) saveState(ctx context.Context, inst *instance) {
	updates := map[string]interface{}{"state": marshalState(inst.state)}
	if err := r.runs.UpdateFields(dbctx.Context{Ctx: ctx}, inst.id, updates); err != nil {
		r.log.Error("failed to persist saga state", "saga_id", inst.id, "error", err)
	}
}

func (r *Runner) recordAction(ctx context.Context, inst *instance, undo Command) (uuid.UUID, error) {
	seq, err := r.actions.GetMaxSeq(dbctx.Context{Ctx: ctx}, inst.id)
	if err != nil {
		return uuid.Nil, err
	}
	now := time.Now().UTC()
	payload, _ := json.Marshal(undo)
	row := &domain.SagaAction{
		ID:        uuid.New(),
		SagaID:    inst.id,
		Seq:       seq + 1,
		Kind:      undo.Kind,
		Payload:   datatypes.JSON(payload),
		Status:    domain.SagaActionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.actions.Create(dbctx.Context{Ctx: ctx}, []*domain.SagaAction{row}); err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

// send delivers outbound commands. A forward send failure flips the
// instance into compensation at most once; a failed undo send marks that
// action failed and finishes the run, so a dead fabric never re-sends the
// same command.
func (r *Runner) send(ctx context.Context, inst *instance, cmds []Command) {
	for len(cmds) > 0 {
		cmd := cmds[0]
		cmds = cmds[1:]
		err := r.fabric.SendCommand(ctx, cmd)
		if err == nil {
			continue
		}
		r.log.Error("failed to send saga command", "saga_id", inst.id, "kind", cmd.Kind, "error", err)

		inst.mu.Lock()
		if inst.done {
			inst.mu.Unlock()
			return
		}
		inst.waiting = false
		inst.expectedKind = ""
		if inst.cause == nil {
			inst.cause = err
		}
		if inst.compensating {
			undo := inst.comps[inst.compIdx]
			if uerr := r.actions.UpdateFields(dbctx.Context{Ctx: ctx}, undo.actionID, map[string]interface{}{"status": domain.SagaActionStatusFailed}); uerr != nil {
				r.log.Error("failed to update saga action", "saga_id", inst.id, "error", uerr)
			}
			_ = r.failLocked(ctx, inst, domain.SagaStatusFailed)
			inst.mu.Unlock()
			return
		}
		out, ferr := r.startCompensationLocked(ctx, inst)
		inst.mu.Unlock()
		if ferr != nil {
			r.log.Error("failed to start compensation", "saga_id", inst.id, "error", ferr)
		}
		cmds = out
	}
}

func (r *Runner) forget(id uuid.UUID) {
	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()
}

func marshalState(state any) datatypes.JSON {
	raw, err := json.Marshal(state)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}
