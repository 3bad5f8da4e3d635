package models

import "time"

// Roles carried in session token claims.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Account represents a client account with its credential state.
// Balance is held in integer minor units (cents) so allocation math never
// touches floating point. Secret fields are stored as hashes only and are
// never serialized into API responses.
type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	EmailVerified bool   `json:"email_verified"`
	BalanceCents  int64  `json:"balance_cents"`
	RiskProfileID int    `json:"risk_profile_id,omitempty"` // 0 until the questionnaire is answered

	// Single-use token state. Only the hash is persisted; setting a new
	// token for a purpose overwrites (and thereby revokes) the previous one.
	VerificationTokenHash    string    `json:"-"`
	VerificationTokenExpires time.Time `json:"-"`
	ResetTokenHash           string    `json:"-"`
	ResetTokenExpires        time.Time `json:"-"`
	RefreshTokenHash         string    `json:"-"`
	RefreshTokenExpires      time.Time `json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// PublicAccount is the client-visible projection of an Account.
type PublicAccount struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	EmailVerified bool    `json:"email_verified"`
	Balance       float64 `json:"balance"`
	RiskProfileID int     `json:"risk_profile_id,omitempty"`
}

// Public returns the account fields safe to return to clients.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		Balance:       CentsToAmount(a.BalanceCents),
		RiskProfileID: a.RiskProfileID,
	}
}

// CentsToAmount converts integer minor units to a display amount.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// AmountToCents converts a display amount to integer minor units,
// rounding to the nearest cent.
func AmountToCents(amount float64) int64 {
	if amount >= 0 {
		return int64(amount*100 + 0.5)
	}
	return int64(amount*100 - 0.5)
}
