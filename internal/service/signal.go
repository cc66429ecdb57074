package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/y4gg/portfolio-api"
)

const blogEventChannel = "blog:events"

// SignalService fans blog change events out through redis pub/sub so
// every instance can feed its websocket subscribers.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event portfolio.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal blog event")
	}

	err = s.rdb.Publish(ctx, blogEventChannel, jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "failed to publish blog event")
	}

	return nil
}

// Realtime forwards decoded blog events to output until ctx is done.
func (s *SignalService) Realtime(ctx context.Context, output chan<- portfolio.Event) {
	pubsub := s.rdb.Subscribe(ctx, blogEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event portfolio.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode blog event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
