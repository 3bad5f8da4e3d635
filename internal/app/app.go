// Package app wires the application object graph: configuration, storage,
// services, and background jobs. Everything downstream receives its
// dependencies from here; nothing constructs its own collaborators.
package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/advisor/internal/auth"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/mailer"
	"github.com/bobmcallan/advisor/internal/services/advice"
	"github.com/bobmcallan/advisor/internal/services/trading"
	"github.com/bobmcallan/advisor/internal/storage/accountdb"
)

// tokenCleanupSchedule runs the expired-token purge once a day.
const tokenCleanupSchedule = "@daily"

// App holds the application's wired components.
type App struct {
	Config *common.Config
	Logger *common.Logger

	DB          *accountdb.DB
	Accounts    interfaces.CredentialStore
	Holdings    interfaces.HoldingsStore
	Instruments interfaces.InstrumentCatalog
	Mailer      interfaces.Mailer

	TokenIssuer *auth.TokenIssuer
	Auth        interfaces.AuthService
	Advice      interfaces.AdviceService
	Trading     interfaces.TradingService

	StartupTime time.Time

	cron *cron.Cron
}

// NewApp builds the application graph from configuration.
func NewApp(cfg *common.Config, logger *common.Logger) (*App, error) {
	db, err := accountdb.Open(logger, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	accounts := db.Accounts()
	holdings := db.Holdings()
	instruments := db.Instruments()
	mail := mailer.NewLogMailer(&cfg.Mailer, logger)
	issuer := auth.NewTokenIssuer(&cfg.Auth)

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Accounts:    accounts,
		Holdings:    holdings,
		Instruments: instruments,
		Mailer:      mail,
		TokenIssuer: issuer,
		Auth:        auth.NewService(accounts, issuer, mail, &cfg.Auth, logger),
		Advice:      advice.NewService(accounts, instruments, logger),
		Trading:     trading.NewService(accounts, holdings, instruments, logger),
		StartupTime: time.Now(),
	}
	return a, nil
}

// StartJobs starts the background schedulers. Currently that is the daily
// expired-token purge.
func (a *App) StartJobs() error {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(tokenCleanupSchedule, a.runTokenCleanup)
	if err != nil {
		return err
	}
	a.cron.Start()
	a.Logger.Info().Str("schedule", tokenCleanupSchedule).Msg("Token cleanup job scheduled")
	return nil
}

// runTokenCleanup purges expired token hashes from all accounts.
func (a *App) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := a.Accounts.PurgeExpiredTokens(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Token cleanup failed")
		return
	}
	if purged > 0 {
		a.Logger.Info().Int("accounts", purged).Msg("Purged expired tokens")
	}
}

// Close stops background jobs and releases storage.
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}
	return a.DB.Close()
}
