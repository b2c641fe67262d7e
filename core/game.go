package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameStatus is the lifecycle state of a game session
type GameStatus string

const (
	GameActive    GameStatus = "active"
	GameCompleted GameStatus = "completed"
)

const (
	StartingLevel = 1
	StartingLives = 3
)

// GameSession is a single play-through owned by one wallet
type GameSession struct {
	ID              string
	WalletAddress   string
	StartTime       time.Time
	EndTime         *time.Time
	Status          GameStatus
	CurrentLevel    int
	Lives           int
	Score           int
	LevelsCompleted int
}

// CompletionResult reports what happened when a session was completed
type CompletionResult struct {
	SessionID            string
	FinalScore           int
	LevelsCompleted      int
	RewardAwarded        bool
	RewardAmount         decimal.Decimal
	TransactionReference string
	RewardReason         string
	Eligibility          Eligibility
}
