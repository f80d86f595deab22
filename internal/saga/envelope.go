package saga

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
)

// Command channels, one per participant service.
const (
	ChannelTeam         = "team"
	ChannelOrganization = "organization"
)

type LockTargetType string

const LockTargetTeam LockTargetType = "TEAM"

// LockTarget serializes every command addressed to the same aggregate.
// Delivery order alone does not stop two saga instances from interleaving a
// read-then-write on one team; the lock does.
type LockTarget struct {
	Type LockTargetType `json:"type"`
	ID   string         `json:"id"`
}

func (lt LockTarget) Key() string { return string(lt.Type) + ":" + lt.ID }

func TeamLock(teamID uuid.UUID) *LockTarget {
	return &LockTarget{Type: LockTargetTeam, ID: teamID.String()}
}

// Command is the typed envelope an orchestrator emits toward a participant.
type Command struct {
	Kind          string          `json:"kind"`
	Channel       string          `json:"channel"`
	ReplyChannel  string          `json:"reply_channel,omitempty"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Lock          *LockTarget     `json:"lock,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Reply is the typed envelope a participant returns, matched back to the
// waiting saga instance by CorrelationID.
type Reply struct {
	Kind          string          `json:"kind"`
	Outcome       string          `json:"outcome"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Code          string          `json:"code,omitempty"`
	Message       string          `json:"message,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Lock          *LockTarget     `json:"lock,omitempty"`
}

func (r Reply) IsSuccess() bool { return r.Outcome == OutcomeSuccess }

// AsError rehydrates a failure reply into a typed participant error.
func (r Reply) AsError() error {
	if r.IsSuccess() {
		return nil
	}
	details := map[string]any{}
	if len(r.Payload) > 0 {
		_ = json.Unmarshal(r.Payload, &details)
	}
	code := r.Code
	if code == "" {
		code = domain.CodeInternal
	}
	return &domain.ParticipantError{ErrCode: code, Message: r.Message, ErrDetails: details}
}

func NewCommand(kind, channel string, lock *LockTarget, payload any) (Command, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, Channel: channel, Lock: lock, Payload: raw}, nil
}

func SuccessReply(cmd Command, payload any) Reply {
	rep := Reply{
		Kind:          cmd.Kind,
		Outcome:       OutcomeSuccess,
		CorrelationID: cmd.CorrelationID,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			rep.Payload = raw
		}
	}
	return rep
}

func FailureReply(cmd Command, err error) Reply {
	rep := Reply{
		Kind:          cmd.Kind,
		Outcome:       OutcomeFailure,
		CorrelationID: cmd.CorrelationID,
		Code:          domain.ErrorCode(err),
	}
	if err != nil {
		rep.Message = err.Error()
	}
	if details := domain.ErrorDetails(err); details != nil {
		raw, merr := json.Marshal(details)
		if merr == nil {
			rep.Payload = raw
		}
	}
	if rep.Code == domain.CodeInternal {
		// Opaque on purpose: unexpected errors must not leak internals.
		rep.Message = "internal error"
		rep.Payload = nil
	}
	return rep
}
