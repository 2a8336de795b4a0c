// Package app builds the service graph from configuration. Both the API
// server and the farmctl CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"farmer_assist/pkg/api/server"
	"farmer_assist/pkg/core/agent"
	"farmer_assist/pkg/core/auth"
	"farmer_assist/pkg/core/blob"
	"farmer_assist/pkg/core/diagnosis"
	"farmer_assist/pkg/core/exchange"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/i18n"
	"farmer_assist/pkg/core/knowledge"
	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/market"
	"farmer_assist/pkg/core/notify"
	"farmer_assist/pkg/core/prompt"
	"farmer_assist/pkg/core/settings"
	"farmer_assist/pkg/core/store"

	"go.uber.org/zap"
)

type App struct {
	Config    settings.Config
	Logger    *zap.Logger
	Agents    *agent.Manager
	Prompts   *prompt.Registry
	Flows     *flow.Runner
	Auth      *auth.Service
	Diagnosis *diagnosis.Service
	Market    *market.Service
	Schemes   knowledge.Store
	Notify    *notify.Service
	Exchange  *exchange.Service

	dbPing  func(ctx context.Context) error
	closers []func() error
}

// Options let callers swap out the parts tests and the CLI replace.
type Options struct {
	// Providers overrides agent.DefaultProviders.
	Providers map[string]llm.Provider
	// Synthesizers overrides the speech backends built from config.
	Synthesizers map[string]llm.Synthesizer
	// OTPSender overrides the logging sender.
	OTPSender auth.OTPSender
	// SkipSeed leaves the exchange board empty.
	SkipSeed bool
}

// New wires every service. With no database URL the repositories live in
// memory; optional S3 and Kafka integrations are enabled by their settings.
func New(ctx context.Context, cfg settings.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	if cfg.DefaultLanguage != "" && !i18n.SetDefault(cfg.DefaultLanguage) {
		logger.Warn("unknown default language, keeping Kannada", zap.String("language", cfg.DefaultLanguage))
	}

	if err := a.loadPrompts(); err != nil {
		return nil, err
	}
	if err := a.initAgents(opts); err != nil {
		return nil, err
	}
	a.Flows = flow.NewRunner(a.Agents, a.Prompts, a.Agents,
		flow.SpeechConfig{Provider: cfg.Speech.Provider, Voice: cfg.Speech.Voice}, logger)

	repos, err := a.initStore(ctx)
	if err != nil {
		return nil, err
	}

	var blobs blob.Store
	if cfg.Storage.S3Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		if err != nil {
			return nil, err
		}
		blobs = s3Store
		logger.Info("photo uploads enabled", zap.String("bucket", cfg.Storage.S3Bucket))
	}

	client := market.NewClient(cfg.Market.APIKey, cfg.Market.Timeout)
	if cfg.Market.BaseURL != "" {
		client.BaseURL = cfg.Market.BaseURL
	}
	if cfg.Market.ResourceID != "" {
		client.ResourceID = cfg.Market.ResourceID
	}
	if cfg.Market.Limit > 0 {
		client.Limit = cfg.Market.Limit
	}
	a.Market = market.NewService(client, a.Flows, logger)

	a.Schemes = knowledge.NewMemoryStore(knowledge.DefaultDocuments()...)

	a.Auth = auth.NewService(repos.users, opts.OTPSender, auth.Config{
		OTPTTL:      cfg.Auth.OTPTTL,
		SessionTTL:  cfg.Auth.SessionTTL,
		MaxAttempts: cfg.Auth.MaxAttempts,
	}, logger)

	a.Diagnosis = diagnosis.NewService(cfg.AppID, a.Flows, repos.diagnoses, blobs, logger)

	var publisher notify.Publisher
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		publisher = kp
		a.closers = append(a.closers, kp.Close)
		logger.Info("notification publishing enabled", zap.Strings("brokers", cfg.Notify.KafkaBrokers))
	}
	hub := notify.NewHub()
	a.closers = append(a.closers, func() error { hub.Close(); return nil })
	a.Notify = notify.NewService(repos.notifications, hub, publisher, logger)

	a.Exchange = exchange.NewService(repos.listings, logger)
	if !opts.SkipSeed {
		if _, err := a.Exchange.Seed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed exchange: %w", err)
		}
	}

	return a, nil
}

func (a *App) loadPrompts() error {
	a.Prompts = prompt.Get()
	n, err := prompt.LoadDefaults()
	if err != nil {
		return fmt.Errorf("failed to load built-in prompts: %w", err)
	}
	a.Logger.Info("prompt library loaded", zap.Int("prompts", n))

	dir := a.Config.ResourcesDir
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	n, err = prompt.LoadFromDirectory(dir)
	if err != nil {
		return err
	}
	a.Logger.Info("prompt overrides loaded", zap.String("dir", dir), zap.Int("prompts", n))
	return nil
}

func (a *App) initAgents(opts Options) error {
	agentCfg, err := agent.LoadConfig(a.Config.ModelsFile)
	if err != nil {
		return err
	}
	providers := opts.Providers
	if providers == nil {
		providers = agent.DefaultProviders()
	}
	a.Agents = agent.NewManager(agentCfg, providers, a.Logger)

	synths := opts.Synthesizers
	if synths == nil {
		sp := a.Config.Speech
		synths = map[string]llm.Synthesizer{
			"gemini": &llm.GeminiSynthesizer{Model: sp.Model, Voice: sp.Voice},
			"openai": &llm.OpenAISynthesizer{},
		}
	}
	for name, s := range synths {
		a.Agents.RegisterSynthesizer(name, s)
	}
	return nil
}

type repositories struct {
	diagnoses     diagnosis.Repo
	users         auth.UserRepo
	notifications notify.Repo
	listings      exchange.Repo
}

func (a *App) initStore(ctx context.Context) (repositories, error) {
	if a.Config.Database.URL == "" {
		a.Logger.Warn("DATABASE_URL not set, data is kept in memory")
		return repositories{
			diagnoses:     store.NewMemoryDiagnosisRepo(),
			users:         store.NewMemoryUserRepo(),
			notifications: store.NewMemoryNotificationRepo(),
			listings:      store.NewMemoryListingRepo(),
		}, nil
	}

	if err := store.InitDB(ctx, a.Config.Database.URL); err != nil {
		return repositories{}, err
	}
	pool := store.GetPool()
	a.dbPing = pool.Ping
	a.closers = append(a.closers, func() error { store.Close(); return nil })

	if a.Config.Database.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			return repositories{}, err
		}
	}
	return repositories{
		diagnoses:     store.NewDiagnosisRepo(pool),
		users:         store.NewUserRepo(pool),
		notifications: store.NewNotificationRepo(pool),
		listings:      store.NewListingRepo(pool),
	}, nil
}

// Server builds the HTTP server over the app's services.
func (a *App) Server() *server.Server {
	return server.New(a.Config.Server, server.Deps{
		Agents:    a.Agents,
		Prompts:   a.Prompts,
		Flows:     a.Flows,
		Auth:      a.Auth,
		Diagnosis: a.Diagnosis,
		Market:    a.Market,
		Schemes:   a.Schemes,
		Notify:    a.Notify,
		Exchange:  a.Exchange,
		DBPing:    a.dbPing,
	}, a.Logger)
}

// Close releases external connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
