package saga

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/teamcore-backend/internal/logger"
)

// Fabric carries commands from orchestrators to participants. The dispatcher
// below is the in-process implementation; the redis bus forwards anything
// addressed to a channel with no local handler.
type Fabric interface {
	SendCommand(ctx context.Context, cmd Command) error
}

// CommandHandler executes commands for one channel and produces a reply.
type CommandHandler interface {
	Channel() string
	Handle(ctx context.Context, cmd Command) Reply
}

// ReplyHandler receives participant replies, usually the saga runner.
type ReplyHandler interface {
	HandleReply(ctx context.Context, rep Reply)
}

// Dispatcher routes commands to registered handlers. Commands sharing a
// channel and lock key are executed one at a time in send order by a
// dedicated queue goroutine; replies are delivered asynchronously so a
// handler finishing never re-enters the sender's stack.
type Dispatcher struct {
	log      *logger.Logger
	mu       sync.Mutex
	handlers map[string]CommandHandler
	replies  ReplyHandler
	queues   map[string]chan Command
	remote   Fabric
	wg       sync.WaitGroup
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		handlers: map[string]CommandHandler{},
		queues:   map[string]chan Command{},
	}
}

func (d *Dispatcher) Register(h CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[h.Channel()] = h
}

func (d *Dispatcher) SetReplyHandler(h ReplyHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies = h
}

// SetRemote installs a fallback fabric for channels without a local handler.
func (d *Dispatcher) SetRemote(f Fabric) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remote = f
}

func (d *Dispatcher) queueKey(cmd Command) string {
	if cmd.Lock != nil {
		return cmd.Channel + "/" + cmd.Lock.Key()
	}
	return cmd.Channel
}

func (d *Dispatcher) SendCommand(ctx context.Context, cmd Command) error {
	d.mu.Lock()
	h, ok := d.handlers[cmd.Channel]
	if !ok {
		remote := d.remote
		d.mu.Unlock()
		if remote == nil {
			return fmt.Errorf("no handler registered for channel %q", cmd.Channel)
		}
		return remote.SendCommand(ctx, cmd)
	}
	key := d.queueKey(cmd)
	q, ok := d.queues[key]
	if !ok {
		q = make(chan Command, 64)
		d.queues[key] = q
		d.wg.Add(1)
		go d.drain(h, q)
	}
	d.mu.Unlock()

	select {
	case q <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drain(h CommandHandler, q chan Command) {
	defer d.wg.Done()
	for cmd := range q {
		rep := h.Handle(context.Background(), cmd)
		d.mu.Lock()
		rh := d.replies
		d.mu.Unlock()
		if rh == nil {
			d.log.Warn("dropping reply with no reply handler", "kind", rep.Kind, "correlation_id", rep.CorrelationID)
			continue
		}
		rh.HandleReply(context.Background(), rep)
	}
}

// Close stops the queue goroutines after in-flight commands finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for _, q := range d.queues {
		close(q)
	}
	d.queues = map[string]chan Command{}
	d.mu.Unlock()
	d.wg.Wait()
}
