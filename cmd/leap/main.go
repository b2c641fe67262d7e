package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/layer-3/leap/adapters/events"
	"github.com/layer-3/leap/adapters/metrics"
	"github.com/layer-3/leap/adapters/oracle"
	"github.com/layer-3/leap/adapters/solana"
	"github.com/layer-3/leap/adapters/store"
	"github.com/layer-3/leap/adapters/tokenizer"
	"github.com/layer-3/leap/adapters/transfer"
	"github.com/layer-3/leap/config"
	"github.com/layer-3/leap/ports"
	"github.com/layer-3/leap/service"
	transport "github.com/layer-3/leap/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := setupLogger(cfg)
	gin.SetMode(gin.ReleaseMode)

	clock := service.SystemClock()
	prom := metrics.NewPrometheus()

	var (
		challenges ports.ChallengeStore
		publisher  message.Publisher
	)

	if cfg.RedisURL != "" {
		// Parse Redis URL and create client
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		challenges = store.NewRedisChallengeStore(redisClient)
		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Redis publisher")
		}
		logger.Info().Msg("using redis for challenges and events")
	} else {
		challenges = store.NewMemoryChallengeStore()
		publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
		logger.Warn().Msg("REDIS_URL not set, challenges are kept in process memory")
	}
	defer publisher.Close()

	var (
		ledgerStore ports.LedgerStore
		gameStore   ports.GameSessionStore
	)

	if cfg.DatabaseURL != "" {
		db, err := store.OpenDatabase(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		ledgerStore = store.NewGormLedgerStore(db)
		gameStore = store.NewGormGameSessionStore(db)
	} else {
		ledgerStore = store.NewMemoryLedgerStore()
		gameStore = store.NewMemoryGameSessionStore()
		logger.Warn().Msg("DATABASE_URL not set, rewards are kept in process memory")
	}

	tokens, err := newTokenizer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create tokenizer")
	}

	verifier := solana.NewEd25519Verifier()
	if cfg.SignatureCheck == config.VerificationPermissive {
		verifier = solana.NewPermissiveVerifier()
		logger.Warn().Msg("signature verification is PERMISSIVE, any well-formed wallet can log in")
	}

	balances := oracle.NewMockBalanceOracle(oracle.NewStaticPriceOracle(cfg.TokenPriceUSD), cfg.MockTokenBalance, cfg.MinimumUSD)
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(challenges, verifier, tokens, prom, clock, logger, cfg.ChallengeTTL)
	engine := service.NewEligibilityEngine(ledgerStore, balances, service.EligibilityConfig{
		Policies: service.Policies{
			Real: service.Policy{DailyLimit: cfg.DailyLimit, MinInterval: cfg.MinInterval},
			Demo: service.Policy{DailyLimit: cfg.DemoDailyLimit, MinInterval: cfg.DemoMinInterval},
		},
		MinimumUSD:     cfg.MinimumUSD,
		BalanceTimeout: cfg.BalanceCheckTimeout,
	}, logger)
	ledger := service.NewRewardLedger(ledgerStore, engine, transfer.NewMockTransfer(clock), eventPub, prom, service.LedgerConfig{
		MaxSingleReward: cfg.MaxSingleReward,
		TransferTimeout: cfg.TransferTimeout,
	}, logger)
	games := service.NewGameSessionTracker(gameStore, engine, ledger, eventPub, logger)

	// Setup Gin router
	router := transport.SetupRouter(transport.Dependencies{
		Auth:           authService,
		Engine:         engine,
		Ledger:         ledger,
		Games:          games,
		Clock:          clock,
		Logger:         logger,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
		CORSOrigins:    cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-done
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "leap").Logger()
	if cfg.LogFormat == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	log.Logger = logger
	return logger
}

func newTokenizer(cfg *config.Config, logger zerolog.Logger) (ports.Tokenizer, error) {
	if cfg.SigningMethod == config.SigningHS256 {
		return tokenizer.NewHMACTokenizer([]byte(cfg.JWTSecret), cfg.Issuer, cfg.TokenTTL)
	}

	if cfg.SigningKeyFile != "" {
		key, err := tokenizer.LoadECDSAKey(cfg.SigningKeyFile)
		if err != nil {
			return nil, err
		}
		return tokenizer.NewECDSATokenizer(key, cfg.Issuer, cfg.TokenTTL), nil
	}

	// Tokens signed with a generated key do not survive a restart
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	logger.Warn().Msg("JWT_SIGNING_KEY_FILE not set, signing with an ephemeral ES256 key")
	return tokenizer.NewECDSATokenizer(key, cfg.Issuer, cfg.TokenTTL), nil
}
