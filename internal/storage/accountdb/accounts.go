package accountdb

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/advisor/internal/models"
)

// AccountStore implements interfaces.CredentialStore.
type AccountStore struct {
	*DB
}

func (s *AccountStore) Create(_ context.Context, account *models.Account) error {
	if err := s.db.Insert(account.ID, account); err != nil {
		return fmt.Errorf("failed to create account '%s': %w", account.ID, err)
	}
	return nil
}

func (s *AccountStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Get(id, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account '%s': %w", id, err)
	}
	return &account, nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	var accounts []models.Account
	if err := s.db.Find(&accounts, badgerhold.Where("Email").Eq(email)); err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

func (s *AccountStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(id, models.Account{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete account '%s': %w", id, err)
	}
	// Holdings cascade with the account.
	return s.Holdings().DeleteByAccount(ctx, id)
}

func (s *AccountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.PasswordHash = passwordHash
	})
}

func (s *AccountStore) UpdateRiskProfile(ctx context.Context, id string, profileID int) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.RiskProfileID = profileID
	})
}

func (s *AccountStore) UpdateBalance(ctx context.Context, id string, balanceCents int64) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.BalanceCents = balanceCents
	})
}

func (s *AccountStore) SetVerificationToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.VerificationTokenHash = tokenHash
		a.VerificationTokenExpires = expires
	})
}

func (s *AccountStore) FindByVerificationTokenHash(_ context.Context, tokenHash string) (*models.Account, error) {
	return s.findByTokenHash("VerificationTokenHash", "VerificationTokenExpires", tokenHash)
}

func (s *AccountStore) MarkEmailVerified(ctx context.Context, id string) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.EmailVerified = true
		a.VerificationTokenHash = ""
		a.VerificationTokenExpires = time.Time{}
	})
}

func (s *AccountStore) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.ResetTokenHash = tokenHash
		a.ResetTokenExpires = expires
	})
}

func (s *AccountStore) FindByResetTokenHash(_ context.Context, tokenHash string) (*models.Account, error) {
	return s.findByTokenHash("ResetTokenHash", "ResetTokenExpires", tokenHash)
}

func (s *AccountStore) ClearResetToken(ctx context.Context, id string) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.ResetTokenHash = ""
		a.ResetTokenExpires = time.Time{}
	})
}

func (s *AccountStore) SetRefreshTokenHash(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.RefreshTokenHash = tokenHash
		a.RefreshTokenExpires = expires
	})
}

func (s *AccountStore) FindByRefreshTokenHash(_ context.Context, tokenHash string) (*models.Account, error) {
	return s.findByTokenHash("RefreshTokenHash", "RefreshTokenExpires", tokenHash)
}

func (s *AccountStore) RevokeRefreshToken(ctx context.Context, id string) error {
	return s.update(ctx, id, func(a *models.Account) {
		a.RefreshTokenHash = ""
		a.RefreshTokenExpires = time.Time{}
	})
}

// PurgeExpiredTokens clears token fields whose expiry has passed. Returns
// the number of accounts touched. Run by the daily cleanup job.
func (s *AccountStore) PurgeExpiredTokens(_ context.Context) (int, error) {
	var accounts []models.Account
	if err := s.db.Find(&accounts, nil); err != nil {
		return 0, fmt.Errorf("failed to scan accounts for token purge: %w", err)
	}

	now := time.Now()
	purged := 0
	for i := range accounts {
		a := &accounts[i]
		changed := false
		if a.VerificationTokenHash != "" && !a.VerificationTokenExpires.After(now) {
			a.VerificationTokenHash = ""
			a.VerificationTokenExpires = time.Time{}
			changed = true
		}
		if a.ResetTokenHash != "" && !a.ResetTokenExpires.After(now) {
			a.ResetTokenHash = ""
			a.ResetTokenExpires = time.Time{}
			changed = true
		}
		if a.RefreshTokenHash != "" && !a.RefreshTokenExpires.After(now) {
			a.RefreshTokenHash = ""
			a.RefreshTokenExpires = time.Time{}
			changed = true
		}
		if !changed {
			continue
		}
		a.ModifiedAt = now
		if err := s.db.Upsert(a.ID, a); err != nil {
			return purged, fmt.Errorf("failed to purge tokens for account '%s': %w", a.ID, err)
		}
		purged++
	}
	return purged, nil
}

// WithAccountLock runs fn while holding the account's write lock. Trading
// and deposit operations use it to make balance read-modify-write atomic
// per account.
func (s *AccountStore) WithAccountLock(id string, fn func() error) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// findByTokenHash looks up an account by a token hash field. An expired
// match is treated as not found, so every hit handed back to the services
// is time-valid.
func (s *AccountStore) findByTokenHash(hashField, expiryField, tokenHash string) (*models.Account, error) {
	if tokenHash == "" {
		return nil, nil
	}
	var accounts []models.Account
	query := badgerhold.Where(hashField).Eq(tokenHash).And(expiryField).Gt(time.Now())
	if err := s.db.Find(&accounts, query); err != nil {
		return nil, fmt.Errorf("failed to find account by token hash: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// update applies a mutation to a stored account and stamps ModifiedAt.
func (s *AccountStore) update(_ context.Context, id string, mutate func(*models.Account)) error {
	var account models.Account
	if err := s.db.Get(id, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("account '%s' not found", id)
		}
		return fmt.Errorf("failed to get account '%s': %w", id, err)
	}
	mutate(&account)
	account.ModifiedAt = time.Now()
	if err := s.db.Upsert(id, &account); err != nil {
		return fmt.Errorf("failed to update account '%s': %w", id, err)
	}
	return nil
}
