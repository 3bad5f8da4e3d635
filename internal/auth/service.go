package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/advisor/internal/apperr"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 1 * time.Hour

	// adminAccountID is the synthetic subject used for the configured
	// operator credential. It never exists in the store.
	adminAccountID = "admin"

	mailTimeout = 10 * time.Second
)

// Service implements interfaces.AuthService on top of a credential store,
// a token issuer, and a best-effort mailer.
type Service struct {
	store  interfaces.CredentialStore
	issuer *TokenIssuer
	mailer interfaces.Mailer
	cfg    *common.AuthConfig
	logger *common.Logger
}

// NewService creates the auth service.
func NewService(store interfaces.CredentialStore, issuer *TokenIssuer, mailer interfaces.Mailer, cfg *common.AuthConfig, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		issuer: issuer,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}
}

// Register creates an unverified account and emails a verification token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.PublicAccount, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, apperr.New(apperr.KindValidation, "name and email are required")
	}
	if !IsStrongPassword(password) {
		return nil, apperr.New(apperr.KindWeakPassword, WeakPasswordMessage)
	}

	if existing, err := s.store.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.New(apperr.KindDuplicateEmail, "an account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	token, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetVerificationToken(ctx, account.ID, HashToken(token), now.Add(verificationTokenTTL)); err != nil {
		return nil, err
	}

	s.sendAsync(account.Email, "verification", func(ctx context.Context) error {
		return s.mailer.SendVerificationEmail(ctx, account.Email, token)
	})

	s.logger.Info().Str("account_id", account.ID).Msg("Account registered")
	pub := account.Public()
	return &pub, nil
}

// Login authenticates a credential pair and opens a session.
//
// Unknown email and wrong password produce the same error so a caller cannot
// probe which addresses are registered. An unverified account is reported as
// such before the password is checked, matching the registration flow where
// the address owner has already proven knowledge of the email inbox.
func (s *Service) Login(ctx context.Context, email, password string) (*interfaces.LoginResult, error) {
	email = normalizeEmail(email)

	if s.isAdminCredential(email, password) {
		return s.adminLogin()
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
	}
	if !account.EmailVerified {
		return nil, apperr.New(apperr.KindAccountNotVerified, "email address has not been verified")
	}
	if !VerifyPassword(password, account.PasswordHash) {
		return nil, apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
	}

	accessToken, err := s.issuer.IssueAccessToken(account.ID, models.RoleClient)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefreshToken(account.ID, models.RoleClient)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.issuer.RefreshExpiry())
	if err := s.store.SetRefreshTokenHash(ctx, account.ID, HashToken(refreshToken), expires); err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", account.ID).Msg("Login succeeded")
	pub := account.Public()
	return &interfaces.LoginResult{
		Account:      &pub,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         models.RoleClient,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated; its stored hash stays valid until
// logout, password reset, or expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.New(apperr.KindMissingToken, "refresh token is required")
	}
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	// The operator session has no store record to check against.
	if claims.Role == models.RoleAdmin {
		return s.issuer.IssueAccessToken(adminAccountID, models.RoleAdmin)
	}

	hash := HashToken(refreshToken)
	account, err := s.store.FindByRefreshTokenHash(ctx, hash)
	if err != nil {
		return "", err
	}
	// Re-check the hash in constant time; the lookup's equality match is
	// not trusted as the final word.
	if account == nil || account.ID != claims.AccountID || !ConstantTimeEquals(hash, account.RefreshTokenHash) {
		return "", apperr.New(apperr.KindInvalidToken, "invalid or expired token")
	}
	return s.issuer.IssueAccessToken(account.ID, models.RoleClient)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.New(apperr.KindMissingToken, "verification token is required")
	}
	hash := HashToken(token)
	account, err := s.store.FindByVerificationTokenHash(ctx, hash)
	if err != nil {
		return err
	}
	if account == nil || !ConstantTimeEquals(hash, account.VerificationTokenHash) {
		return apperr.New(apperr.KindInvalidOrExpiredToken, "invalid or expired verification token")
	}
	// Already verified: nothing to mutate.
	if account.EmailVerified {
		return nil
	}
	if err := s.store.MarkEmailVerified(ctx, account.ID); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", account.ID).Msg("Email verified")
	return nil
}

// ForgotPassword issues a reset token if the email is registered. The
// outcome is identical either way so the endpoint cannot be used to probe
// for registered addresses.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		s.logger.Debug().Msg("Password reset requested for unknown email")
		return nil
	}

	token, err := GenerateSecureToken()
	if err != nil {
		return err
	}
	if err := s.store.SetResetToken(ctx, account.ID, HashToken(token), time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	s.sendAsync(account.Email, "password reset", func(ctx context.Context) error {
		return s.mailer.SendPasswordResetEmail(ctx, account.Email, token)
	})
	return nil
}

// ResetPassword consumes a reset token, replaces the password, and revokes
// the active refresh session so a stolen session does not outlive the reset.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperr.New(apperr.KindMissingToken, "reset token is required")
	}
	if !IsStrongPassword(newPassword) {
		return apperr.New(apperr.KindWeakPassword, WeakPasswordMessage)
	}

	hash := HashToken(token)
	account, err := s.store.FindByResetTokenHash(ctx, hash)
	if err != nil {
		return err
	}
	if account == nil || !ConstantTimeEquals(hash, account.ResetTokenHash) {
		return apperr.New(apperr.KindInvalidOrExpiredToken, "invalid or expired reset token")
	}

	hash, err = HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}
	if err := s.store.ClearResetToken(ctx, account.ID); err != nil {
		return err
	}
	if err := s.store.RevokeRefreshToken(ctx, account.ID); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", account.ID).Msg("Password reset")
	return nil
}

// Logout revokes the account's refresh session. Outstanding access tokens
// stay valid until they expire.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if accountID == adminAccountID {
		return nil
	}
	return s.store.RevokeRefreshToken(ctx, accountID)
}

// isAdminCredential checks the pair against the configured operator
// credential in constant time.
func (s *Service) isAdminCredential(email, password string) bool {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(s.cfg.AdminEmail)))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword))
	return emailOK == 1 && passOK == 1
}

// adminLogin opens an operator session backed only by signed tokens.
func (s *Service) adminLogin() (*interfaces.LoginResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(adminAccountID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefreshToken(adminAccountID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Msg("Admin login succeeded")
	return &interfaces.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         models.RoleAdmin,
	}, nil
}

// sendAsync dispatches a transactional email without blocking the request.
// Delivery failures are logged, never surfaced to the caller.
func (s *Service) sendAsync(email, kind string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error().Err(err).Str("kind", kind).Msg("Failed to send email")
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
