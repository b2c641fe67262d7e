package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// GormGameSessionStore persists game sessions in a SQL database
type GormGameSessionStore struct {
	db *gorm.DB
}

// NewGormGameSessionStore creates a game session store on top of an opened database
func NewGormGameSessionStore(db *gorm.DB) *GormGameSessionStore {
	return &GormGameSessionStore{db: db}
}

var _ ports.GameSessionStore = (*GormGameSessionStore)(nil)

// Create inserts a new session
func (s *GormGameSessionStore) Create(ctx context.Context, session core.GameSession) error {
	row := newGameSessionRow(session)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dependencyError("failed to create game session", err)
	}
	return nil
}

// Get loads a session by id
func (s *GormGameSessionStore) Get(ctx context.Context, id string) (core.GameSession, error) {
	var row gameSessionRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.GameSession{}, core.ErrSessionNotFound
	}
	if err != nil {
		return core.GameSession{}, dependencyError("failed to load game session", err)
	}
	return row.session(), nil
}

// Complete flips an active session with a conditional update, so that two
// concurrent completions cannot both succeed.
func (s *GormGameSessionStore) Complete(ctx context.Context, id, walletAddress string, score, levels int, endedAt time.Time) (core.GameSession, error) {
	end := endedAt.UTC()
	db := s.db.WithContext(ctx)

	res := db.Model(&gameSessionRow{}).
		Where("id = ? AND wallet_address = ? AND status = ?", id, walletAddress, string(core.GameActive)).
		Updates(map[string]any{
			"status":           string(core.GameCompleted),
			"end_time":         end,
			"score":            score,
			"levels_completed": levels,
		})
	if res.Error != nil {
		return core.GameSession{}, dependencyError("failed to complete game session", res.Error)
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return core.GameSession{}, err
	}
	if session.WalletAddress != walletAddress {
		return core.GameSession{}, core.ErrSessionNotFound
	}
	if res.RowsAffected == 0 {
		return core.GameSession{}, core.ErrSessionCompleted
	}
	return session, nil
}
