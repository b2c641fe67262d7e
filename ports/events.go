package ports

import (
	"context"

	"github.com/layer-3/leap/core"
)

// EventPublisher publishes domain events to other services
type EventPublisher interface {
	PublishRewardGranted(ctx context.Context, record core.RewardRecord) error
	PublishGameCompleted(ctx context.Context, session core.GameSession) error
}
