package saga

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type recordingHandler struct {
	channel string
	mu      sync.Mutex
	kinds   []string
}

func (h *recordingHandler) Channel() string { return h.channel }

func (h *recordingHandler) Handle(ctx context.Context, cmd Command) Reply {
	h.mu.Lock()
	h.kinds = append(h.kinds, cmd.Kind)
	h.mu.Unlock()
	return SuccessReply(cmd, nil)
}

type collectingReplies struct {
	mu      sync.Mutex
	replies []Reply
}

func (c *collectingReplies) HandleReply(ctx context.Context, rep Reply) {
	c.mu.Lock()
	c.replies = append(c.replies, rep)
	c.mu.Unlock()
}

func TestDispatcherDeliversInOrderPerLockKey(t *testing.T) {
	d := NewDispatcher(testRunnerLogger(t))
	h := &recordingHandler{channel: ChannelTeam}
	sink := &collectingReplies{}
	d.Register(h)
	d.SetReplyHandler(sink)

	teamID := uuid.New()
	for _, kind := range []string{"a", "b", "c"} {
		cmd, err := NewCommand(kind, ChannelTeam, TeamLock(teamID), nil)
		if err != nil {
			t.Fatalf("NewCommand %q: %v", kind, err)
		}
		cmd.CorrelationID = uuid.New()
		if err := d.SendCommand(context.Background(), cmd); err != nil {
			t.Fatalf("SendCommand %q: %v", kind, err)
		}
	}
	d.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.kinds) != 3 || h.kinds[0] != "a" || h.kinds[1] != "b" || h.kinds[2] != "c" {
		t.Fatalf("delivery order: want=[a b c] got=%v", h.kinds)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.replies) != 3 {
		t.Fatalf("replies: want=3 got=%d", len(sink.replies))
	}
}

func TestDispatcherUnknownChannelWithoutRemoteErrors(t *testing.T) {
	d := NewDispatcher(testRunnerLogger(t))
	defer d.Close()

	cmd, err := NewCommand("x", "nowhere", nil, nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := d.SendCommand(context.Background(), cmd); err == nil {
		t.Fatalf("expected error for unregistered channel")
	}
}

func TestDispatcherFallsBackToRemote(t *testing.T) {
	d := NewDispatcher(testRunnerLogger(t))
	defer d.Close()

	remote := &scriptFabric{script: func(cmd Command) Reply { return SuccessReply(cmd, nil) }}
	remote.runner = NewRunner(testRunnerLogger(t), remote, newFakeSagaRunRepo(), &fakeSagaActionRepo{})
	d.SetRemote(remote)

	cmd, err := NewCommand("x", ChannelOrganization, nil, nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := d.SendCommand(context.Background(), cmd); err != nil {
		t.Fatalf("SendCommand via remote: %v", err)
	}
	if got := len(remote.kinds()); got != 1 {
		t.Fatalf("remote sends: want=1 got=%d", got)
	}
}
