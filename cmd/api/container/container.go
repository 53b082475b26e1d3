package container

import (
	"context"
	"fmt"
	"time"

	"github.com/poseidon/assetmarket/common/bootstrap"
	"github.com/poseidon/assetmarket/common/cache"
	"github.com/poseidon/assetmarket/common/clients"
	"github.com/poseidon/assetmarket/common/config"
	"github.com/poseidon/assetmarket/common/gate"
	"github.com/poseidon/assetmarket/common/payment"
	"github.com/poseidon/assetmarket/common/ratelimit"
	"github.com/poseidon/assetmarket/common/repository"
	"github.com/poseidon/assetmarket/common/service"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	AssetRepo       *repository.AssetRepository
	CreatorRepo     *repository.CreatorRepository
	TransactionRepo *repository.TransactionRepository

	// Services
	CreatorService     *service.CreatorService
	AssetService       *service.AssetService
	TransactionService *service.TransactionService
	Gate               *gate.Gate

	// Clients
	Agent *clients.AgentClient

	// Rate limiting
	Limiter ratelimit.Limiter
}

// Stores groups the persistence a container is built on. Production code
// passes the pgx repositories; tests pass in-memory stores.
type Stores struct {
	Assets       service.AssetStore
	Creators     service.CreatorStore
	Transactions service.TransactionStore
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	assetRepo := repository.NewAssetRepository(components.DB)
	creatorRepo := repository.NewCreatorRepository(components.DB)
	transactionRepo := repository.NewTransactionRepository(components.DB)

	c, err := Build(ctx, components, Stores{
		Assets:       assetRepo,
		Creators:     creatorRepo,
		Transactions: transactionRepo,
	})
	if err != nil {
		return nil, err
	}

	c.AssetRepo = assetRepo
	c.CreatorRepo = creatorRepo
	c.TransactionRepo = transactionRepo
	return c, nil
}

// Build wires services over the given stores (bottom-up: dependencies first)
func Build(ctx context.Context, components *bootstrap.Components, stores Stores) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	assetOpts := service.AssetServiceOptions{
		DefaultPageSize: cfg.Assets.DefaultPageSize,
		MaxPageSize:     cfg.Assets.MaxPageSize,
		MaxUploadBytes:  cfg.Storage.UploadMaxBytes,
	}
	// the tag cache must be shared by api and mcp, so it is Redis only
	if components.Redis != nil {
		assetOpts.TagCache = cache.NewRedisCache(components.Redis.GetUnderlying(), "assetmarket:cache:")
		assetOpts.TagTTL = cfg.Assets.TagCacheTTL
	}

	creatorService := service.NewCreatorService(stores.Creators, log, cfg.Assets.AutoProvisionCreators)
	assetService := service.NewAssetService(stores.Assets, creatorService, components.Blobs, log, assetOpts)
	transactionService := service.NewTransactionService(stores.Transactions, log)

	deliveryGate, err := NewGate(cfg, components, assetService, transactionService)
	if err != nil {
		return nil, err
	}

	var agent *clients.AgentClient
	if cfg.Clients.AgentURL != "" {
		agent = clients.NewAgentClient(cfg.Clients.AgentURL, cfg.Clients.Timeout, log)
	}

	return &Container{
		Components:         components,
		CreatorService:     creatorService,
		AssetService:       assetService,
		TransactionService: transactionService,
		Gate:               deliveryGate,
		Agent:              agent,
		Limiter:            NewLimiter(ctx, cfg, components),
	}, nil
}

// NewGate builds the delivery gate from payment config. Transactions are
// recorded remotely when TRANSACTIONS_URL is set and in process otherwise.
func NewGate(cfg *config.Config, components *bootstrap.Components, assets gate.AssetSource, local gate.TransactionRecorder) (*gate.Gate, error) {
	log := components.Logger
	mode := cfg.EffectivePaymentMode()

	var verifier gate.Verifier
	if mode != config.PaymentModeDisabled {
		verifier = payment.NewFacilitatorClient(cfg.Payment.FacilitatorURL, cfg.Payment.RequestTimeout, log)
	} else if cfg.Payment.Mode != config.PaymentModeDisabled {
		log.Warn("FACILITATOR_URL is not set, payment gating is disabled", "configured_mode", cfg.Payment.Mode)
	}

	recorder := local
	if cfg.Clients.TransactionsURL != "" {
		recorder = clients.NewTransactionClient(cfg.Clients.TransactionsURL, cfg.Clients.Timeout, log)
	}

	var exempt gate.ExemptionRule
	if cfg.Payment.FreeAccessRule != "" {
		rule, err := gate.NewCELRule(cfg.Payment.FreeAccessRule)
		if err != nil {
			return nil, fmt.Errorf("invalid FREE_ACCESS_RULE: %w", err)
		}
		exempt = rule
	}

	g, err := gate.New(assets, verifier, recorder, exempt, log, gate.Options{
		Mode:   mode,
		PayTo:  cfg.Payment.PayTo,
		Settle: cfg.Payment.Settle,
		Requirements: payment.RequirementBuilder{
			Network:        cfg.Payment.Network,
			Asset:          cfg.Payment.Asset,
			Decimals:       cfg.Payment.Decimals,
			Currency:       cfg.Payment.Currency,
			TimeoutSeconds: cfg.Payment.TimeoutSeconds,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery gate: %w", err)
	}

	log.Info("delivery gate ready", "mode", mode, "settle", cfg.Payment.Settle, "network", cfg.Payment.Network)
	return g, nil
}

// NewLimiter picks the Redis limiter when Redis is up and the in-process
// one otherwise. Returns nil when rate limiting is disabled.
func NewLimiter(ctx context.Context, cfg *config.Config, components *bootstrap.Components) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	if cfg.RateLimit.Backend == "redis" && components.Redis != nil {
		return ratelimit.NewRedisLimiter(components.Redis.GetUnderlying(), components.Logger)
	}

	if cfg.RateLimit.Backend == "redis" {
		components.Logger.Warn("redis rate limiting requested without redis, using in-process limiter")
	}

	mem := ratelimit.NewMemoryLimiter(3 * time.Minute)
	go mem.Run(ctx, time.Minute)
	return mem
}
