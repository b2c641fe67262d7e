package store

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/layer-3/leap/core"
)

const sqlitePrefix = "sqlite:"

// rewardRow is the persisted form of core.RewardRecord
type rewardRow struct {
	ID                   string          `gorm:"primaryKey;size:36"`
	WalletAddress        string          `gorm:"size:64;not null;index:idx_reward_wallet_day,priority:1"`
	Day                  string          `gorm:"size:10;not null;index:idx_reward_wallet_day,priority:2"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,9);not null"`
	RewardType           string          `gorm:"size:32;not null"`
	TransactionReference string          `gorm:"size:128"`
	Status               string          `gorm:"size:16;not null;index"`
	DemoMode             bool            `gorm:"not null;default:false"`
	CreatedAt            time.Time       `gorm:"not null"`
}

func (rewardRow) TableName() string { return "reward_transactions" }

func newRewardRow(r core.RewardRecord) rewardRow {
	return rewardRow{
		ID:                   r.ID,
		WalletAddress:        r.WalletAddress,
		Day:                  core.DayKey(r.CreatedAt),
		Amount:               r.Amount,
		RewardType:           string(r.RewardType),
		TransactionReference: r.TransactionReference,
		Status:               string(r.Status),
		DemoMode:             r.DemoMode,
		CreatedAt:            r.CreatedAt.UTC(),
	}
}

func (r rewardRow) record() core.RewardRecord {
	return core.RewardRecord{
		ID:                   r.ID,
		WalletAddress:        r.WalletAddress,
		Amount:               r.Amount,
		RewardType:           core.RewardType(r.RewardType),
		TransactionReference: r.TransactionReference,
		Status:               core.RewardStatus(r.Status),
		DemoMode:             r.DemoMode,
		CreatedAt:            r.CreatedAt.UTC(),
	}
}

// gameSessionRow is the persisted form of core.GameSession
type gameSessionRow struct {
	ID              string     `gorm:"primaryKey;size:36"`
	WalletAddress   string     `gorm:"size:64;not null;index"`
	StartTime       time.Time  `gorm:"not null"`
	EndTime         *time.Time
	Status          string     `gorm:"size:16;not null"`
	CurrentLevel    int        `gorm:"not null;default:1"`
	Lives           int        `gorm:"not null;default:3"`
	Score           int        `gorm:"not null;default:0"`
	LevelsCompleted int        `gorm:"not null;default:0"`
}

func (gameSessionRow) TableName() string { return "game_sessions" }

func newGameSessionRow(s core.GameSession) gameSessionRow {
	return gameSessionRow{
		ID:              s.ID,
		WalletAddress:   s.WalletAddress,
		StartTime:       s.StartTime.UTC(),
		EndTime:         s.EndTime,
		Status:          string(s.Status),
		CurrentLevel:    s.CurrentLevel,
		Lives:           s.Lives,
		Score:           s.Score,
		LevelsCompleted: s.LevelsCompleted,
	}
}

func (r gameSessionRow) session() core.GameSession {
	s := core.GameSession{
		ID:              r.ID,
		WalletAddress:   r.WalletAddress,
		StartTime:       r.StartTime.UTC(),
		Status:          core.GameStatus(r.Status),
		CurrentLevel:    r.CurrentLevel,
		Lives:           r.Lives,
		Score:           r.Score,
		LevelsCompleted: r.LevelsCompleted,
	}
	if r.EndTime != nil {
		end := r.EndTime.UTC()
		s.EndTime = &end
	}
	return s
}

// OpenDatabase connects to DATABASE_URL and migrates the schema.
// A "sqlite:" prefix selects the sqlite driver, anything else is handed to postgres.
func OpenDatabase(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	var (
		db  *gorm.DB
		err error
	)
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		db, err = gorm.Open(sqlite.Open(path), cfg)
	} else {
		db, err = openPostgres(dsn, cfg, log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// sqlite allows a single writer; one connection also serializes transactions
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&rewardRow{}, &gameSessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("driver", db.Dialector.Name()).Msg("database connected and migrated")
	return db, nil
}

func openPostgres(dsn string, cfg *gorm.Config, log zerolog.Logger) (*gorm.DB, error) {
	const maxRetries = 5
	retryDelay := time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			err = ping(db)
		}
		if err == nil {
			return db, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", retryDelay).Msg("database connection failed")
		time.Sleep(retryDelay)
		retryDelay = min(retryDelay*2, 10*time.Second)
	}

	return nil, lastErr
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// aggregateTime scans MAX(created_at), which sqlite returns as text.
type aggregateTime struct {
	Time time.Time
}

func (t *aggregateTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported time value %T", value)
}

func (t aggregateTime) Value() (driver.Value, error) {
	return t.Time, nil
}

var aggregateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *aggregateTime) parse(s string) error {
	for _, layout := range aggregateTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", s)
}
