// Package interfaces defines service and storage contracts for Advisor
package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/advisor/internal/models"
)

// CredentialStore persists accounts and their credential/token state.
//
// All FindBy*TokenHash lookups filter out expired tokens at the store layer:
// expiry is a query predicate, not an application-layer check, so a returned
// match is always time-valid. The store also serializes balance
// read-modify-write cycles per account via WithAccountLock; the trading
// engine relies on that and does not retry.
type CredentialStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Delete(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRiskProfile(ctx context.Context, id string, profileID int) error
	UpdateBalance(ctx context.Context, id string, balanceCents int64) error

	// Email verification token lifecycle.
	SetVerificationToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	FindByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.Account, error)
	MarkEmailVerified(ctx context.Context, id string) error

	// Password reset token lifecycle.
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.Account, error)
	ClearResetToken(ctx context.Context, id string) error

	// Refresh token lifecycle. One active refresh token per account;
	// setting a new hash revokes the previous session.
	SetRefreshTokenHash(ctx context.Context, id, tokenHash string, expires time.Time) error
	FindByRefreshTokenHash(ctx context.Context, tokenHash string) (*models.Account, error)
	RevokeRefreshToken(ctx context.Context, id string) error

	// PurgeExpiredTokens clears token fields whose expiry has passed.
	// Returns the number of accounts touched. Used by the cleanup job.
	PurgeExpiredTokens(ctx context.Context) (int, error)

	// WithAccountLock runs fn while holding the per-account write lock.
	WithAccountLock(id string, fn func() error) error

	Close() error
}

// HoldingsStore persists account positions.
type HoldingsStore interface {
	FindByAccount(ctx context.Context, accountID string) ([]*models.Holding, error)
	FindByAccountAndInstrument(ctx context.Context, accountID, instrumentID string) (*models.Holding, error)
	Create(ctx context.Context, holding *models.Holding) error
	UpdateQuantity(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal) error
	Delete(ctx context.Context, accountID, instrumentID string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// InstrumentCatalog provides read access to the tradeable instruments.
// Prices are authoritative at call time.
type InstrumentCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Instrument, error)
	FindAll(ctx context.Context) ([]*models.Instrument, error)
}

// Mailer dispatches transactional email. Callers treat delivery as
// best-effort: failures are logged and never fail the triggering operation.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}
