package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

// SagaBus carries saga traffic over redis pub/sub when a participant runs in
// another process. Commands publish to "<prefix>.cmd.<channel>", replies to
// "<prefix>.reply". It also exposes BroadcastEvent so job notifications reach
// other replicas.
type SagaBus interface {
	saga.Fabric
	StartReplyForwarder(ctx context.Context, onReply func(rep saga.Reply)) error
	BroadcastEvent(ctx context.Context, topic string, payload any) error
	Close() error
}

type sagaBus struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	grp    *errgroup.Group
}

func NewSagaBus(log *logger.Logger) (SagaBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_SAGA_PREFIX"))
	if prefix == "" {
		prefix = "teamcore.saga"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &sagaBus{
		log:    log.With("service", "RedisSagaBus"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (b *sagaBus) commandTopic(channel string) string {
	return b.prefix + ".cmd." + channel
}

func (b *sagaBus) replyTopic() string {
	return b.prefix + ".reply"
}

func (b *sagaBus) SendCommand(ctx context.Context, cmd saga.Command) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis saga bus not initialized")
	}
	if cmd.ReplyChannel == "" {
		cmd.ReplyChannel = b.replyTopic()
	}
	raw, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.commandTopic(cmd.Channel), raw).Err()
}

// StartReplyForwarder subscribes to the reply topic and pushes each decoded
// reply to onReply until ctx ends.
func (b *sagaBus) StartReplyForwarder(ctx context.Context, onReply func(rep saga.Reply)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis saga bus not initialized")
	}
	if onReply == nil {
		return fmt.Errorf("onReply callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.replyTopic())

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	grp, gctx := errgroup.WithContext(ctx)
	b.grp = grp
	grp.Go(func() error {
		ch := sub.Channel()
		for {
			select {
			case <-gctx.Done():
				_ = sub.Close()
				return nil
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return nil
				}
				var rep saga.Reply
				if err := json.Unmarshal([]byte(m.Payload), &rep); err != nil {
					b.log.Warn("bad redis saga reply payload", "error", err)
					continue
				}
				onReply(rep)
			}
		}
	})

	return nil
}

func (b *sagaBus) BroadcastEvent(ctx context.Context, topic string, payload any) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis saga bus not initialized")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.prefix+".event."+topic, raw).Err()
}

func (b *sagaBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	err := b.rdb.Close()
	if b.grp != nil {
		_ = b.grp.Wait()
	}
	return err
}
