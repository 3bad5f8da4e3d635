package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/advisor/internal/models"
)

// AuthService orchestrates the account credential lifecycle.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.PublicAccount, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context, accountID string) error
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Account      *models.PublicAccount `json:"account,omitempty"`
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	Role         string                `json:"role"`
}

// AdviceService computes risk profiles and model portfolios.
type AdviceService interface {
	SetProfile(ctx context.Context, accountID string, answers models.QuestionnaireAnswers) (*models.RiskProfile, error)
	Recommend(ctx context.Context, accountID string) (*models.Recommendation, error)
}

// TradingService executes simulated trades against an account's balance.
type TradingService interface {
	Deposit(ctx context.Context, accountID string, amountCents int64) (*models.PublicAccount, error)
	Buy(ctx context.Context, accountID, instrumentID string, cashAmountCents int64) (*models.Portfolio, error)
	Sell(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal) (*models.Portfolio, error)
	InvestRecommendation(ctx context.Context, accountID string, rec *models.Recommendation) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, accountID string) (*models.Portfolio, error)
}
