package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const (
	TopicRewardGranted = "leap.rewards.granted"
	TopicGameCompleted = "leap.games.completed"
)

// RewardGrantedEvent is emitted once per appended reward record
type RewardGrantedEvent struct {
	ID                   string          `json:"id"`
	WalletAddress        string          `json:"wallet_address"`
	Amount               decimal.Decimal `json:"amount_sol"`
	RewardType           core.RewardType `json:"reward_type"`
	TransactionReference string          `json:"transaction_signature"`
	DemoMode             bool            `json:"demo_mode"`
	CreatedAt            time.Time       `json:"created_at"`
}

// GameCompletedEvent is emitted when a game session is completed
type GameCompletedEvent struct {
	SessionID       string     `json:"session_id"`
	WalletAddress   string     `json:"wallet_address"`
	Score           int        `json:"score"`
	LevelsCompleted int        `json:"levels_completed"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishRewardGranted publishes a reward granted event
func (p *WatermillPublisher) PublishRewardGranted(ctx context.Context, record core.RewardRecord) error {
	event := RewardGrantedEvent{
		ID:                   record.ID,
		WalletAddress:        record.WalletAddress,
		Amount:               record.Amount,
		RewardType:           record.RewardType,
		TransactionReference: record.TransactionReference,
		DemoMode:             record.DemoMode,
		CreatedAt:            record.CreatedAt,
	}
	return p.publish(ctx, TopicRewardGranted, record.ID, record.WalletAddress, event)
}

// PublishGameCompleted publishes a game completed event
func (p *WatermillPublisher) PublishGameCompleted(ctx context.Context, session core.GameSession) error {
	event := GameCompletedEvent{
		SessionID:       session.ID,
		WalletAddress:   session.WalletAddress,
		Score:           session.Score,
		LevelsCompleted: session.LevelsCompleted,
		StartTime:       session.StartTime,
		EndTime:         session.EndTime,
	}
	return p.publish(ctx, TopicGameCompleted, session.ID, session.WalletAddress, event)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, id, walletAddress string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("wallet_address", walletAddress)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
