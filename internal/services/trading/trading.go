package trading

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/advisor/internal/apperr"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
)

// dustThreshold is the quantity below which a position is deleted rather
// than kept as a dust row after a sell.
var dustThreshold = decimal.RequireFromString("0.0001")

// Service implements interfaces.TradingService. Balance read-modify-write
// cycles run under the store's per-account lock; the service does not retry.
type Service struct {
	accounts interfaces.CredentialStore
	holdings interfaces.HoldingsStore
	catalog  interfaces.InstrumentCatalog
	logger   *common.Logger
}

// NewService creates the trading service.
func NewService(accounts interfaces.CredentialStore, holdings interfaces.HoldingsStore, catalog interfaces.InstrumentCatalog, logger *common.Logger) *Service {
	return &Service{accounts: accounts, holdings: holdings, catalog: catalog, logger: logger}
}

// Deposit credits a positive cash amount to the account balance.
func (s *Service) Deposit(ctx context.Context, accountID string, amountCents int64) (*models.PublicAccount, error) {
	if amountCents <= 0 {
		return nil, apperr.New(apperr.KindValidation, "deposit amount must be positive")
	}

	var pub models.PublicAccount
	err := s.accounts.WithAccountLock(accountID, func() error {
		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return apperr.New(apperr.KindAccountNotFound, "account not found")
		}
		account.BalanceCents += amountCents
		if err := s.accounts.UpdateBalance(ctx, account.ID, account.BalanceCents); err != nil {
			return err
		}
		pub = account.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Int64("amount_cents", amountCents).
		Msg("Deposit credited")
	return &pub, nil
}

// Buy spends cashAmountCents of the account's balance on an instrument.
// The resulting quantity is cash divided by unit price; fractional units
// are allowed. An existing position in the instrument is increased rather
// than duplicated.
func (s *Service) Buy(ctx context.Context, accountID, instrumentID string, cashAmountCents int64) (*models.Portfolio, error) {
	if cashAmountCents <= 0 {
		return nil, apperr.New(apperr.KindValidation, "buy amount must be positive")
	}

	instrument, err := s.catalog.FindByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	if instrument == nil {
		return nil, apperr.New(apperr.KindInstrumentNotFound, "instrument not found")
	}

	err = s.accounts.WithAccountLock(accountID, func() error {
		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return apperr.New(apperr.KindAccountNotFound, "account not found")
		}
		if cashAmountCents > account.BalanceCents {
			return apperr.New(apperr.KindInsufficientBalance, "insufficient balance")
		}

		quantity := decimal.NewFromInt(cashAmountCents).Div(decimal.NewFromInt(instrument.UnitPriceCents))

		// Debit first, then mutate the holding under the same lock.
		if err := s.accounts.UpdateBalance(ctx, account.ID, account.BalanceCents-cashAmountCents); err != nil {
			return err
		}
		return s.addToHolding(ctx, accountID, instrument.ID, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("instrument_id", instrumentID).
		Int64("amount_cents", cashAmountCents).
		Msg("Buy executed")
	return s.GetPortfolio(ctx, accountID)
}

// Sell disposes of quantity units of a position and credits the proceeds.
// Selling down to less than the dust threshold deletes the position.
func (s *Service) Sell(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal) (*models.Portfolio, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.KindValidation, "sell quantity must be positive")
	}

	instrument, err := s.catalog.FindByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	if instrument == nil {
		return nil, apperr.New(apperr.KindInstrumentNotFound, "instrument not found")
	}

	err = s.accounts.WithAccountLock(accountID, func() error {
		account, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return apperr.New(apperr.KindAccountNotFound, "account not found")
		}

		holding, err := s.holdings.FindByAccountAndInstrument(ctx, accountID, instrumentID)
		if err != nil {
			return err
		}
		if holding == nil {
			return apperr.New(apperr.KindNoSuchHolding, "no position in this instrument")
		}
		if quantity.GreaterThan(holding.Quantity) {
			return apperr.Newf(apperr.KindInsufficientQuantity,
				"insufficient quantity: %s units available", holding.Quantity.String())
		}

		proceedsCents := quantity.Mul(decimal.NewFromInt(instrument.UnitPriceCents)).Round(0).IntPart()

		remaining := holding.Quantity.Sub(quantity)
		if remaining.LessThan(dustThreshold) {
			if err := s.holdings.Delete(ctx, accountID, instrumentID); err != nil {
				return err
			}
		} else {
			if err := s.holdings.UpdateQuantity(ctx, accountID, instrumentID, remaining); err != nil {
				return err
			}
		}
		return s.accounts.UpdateBalance(ctx, account.ID, account.BalanceCents+proceedsCents)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("instrument_id", instrumentID).
		Str("quantity", quantity.String()).
		Msg("Sell executed")
	return s.GetPortfolio(ctx, accountID)
}

// InvestRecommendation spends the whole cash balance according to a model
// portfolio. Allocation is best-effort: a line that fails to buy is logged
// and skipped so one bad instrument does not abort the rest, and the
// returned portfolio reflects whichever lines succeeded.
func (s *Service) InvestRecommendation(ctx context.Context, accountID string, rec *models.Recommendation) (*models.Portfolio, error) {
	if rec == nil || len(rec.Targets) == 0 {
		return nil, apperr.New(apperr.KindEmptyRecommendation, "recommendation has no allocation targets")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.KindAccountNotFound, "account not found")
	}
	if account.BalanceCents <= 0 {
		return nil, apperr.New(apperr.KindInsufficientBalance, "insufficient balance")
	}

	allocations := Allocate(account.BalanceCents, rec.Targets)
	for _, alloc := range allocations {
		if alloc.AmountCents <= 0 {
			continue
		}
		if _, err := s.Buy(ctx, accountID, alloc.InstrumentID, alloc.AmountCents); err != nil {
			s.logger.Warn().
				Err(err).
				Str("account_id", accountID).
				Str("instrument_id", alloc.InstrumentID).
				Int64("amount_cents", alloc.AmountCents).
				Msg("Allocation line failed, continuing")
		}
	}
	return s.GetPortfolio(ctx, accountID)
}

// GetPortfolio returns the account's balance and positions joined with
// current instrument data.
func (s *Service) GetPortfolio(ctx context.Context, accountID string) (*models.Portfolio, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.KindAccountNotFound, "account not found")
	}

	holdings, err := s.holdings.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	views := make([]models.HoldingView, 0, len(holdings))
	for _, h := range holdings {
		instrument, err := s.catalog.FindByID(ctx, h.InstrumentID)
		if err != nil {
			return nil, err
		}
		if instrument == nil {
			// Instrument removed from the catalog after purchase; show the
			// position without pricing rather than failing the whole view.
			views = append(views, models.HoldingView{
				InstrumentID: h.InstrumentID,
				Quantity:     h.Quantity,
			})
			continue
		}
		price := decimal.NewFromInt(instrument.UnitPriceCents)
		valueCents := h.Quantity.Mul(price).Round(0).IntPart()
		views = append(views, models.HoldingView{
			InstrumentID: instrument.ID,
			Name:         instrument.Name,
			Category:     instrument.Category,
			Risk:         instrument.Risk,
			UnitPrice:    models.CentsToAmount(instrument.UnitPriceCents),
			Quantity:     h.Quantity,
			Value:        models.CentsToAmount(valueCents),
		})
	}

	return &models.Portfolio{
		AccountID: accountID,
		Balance:   models.CentsToAmount(account.BalanceCents),
		Holdings:  views,
	}, nil
}

// addToHolding increases an existing position or creates a new one.
func (s *Service) addToHolding(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal) error {
	holding, err := s.holdings.FindByAccountAndInstrument(ctx, accountID, instrumentID)
	if err != nil {
		return err
	}
	if holding != nil {
		return s.holdings.UpdateQuantity(ctx, accountID, instrumentID, holding.Quantity.Add(quantity))
	}
	now := time.Now()
	return s.holdings.Create(ctx, &models.Holding{
		AccountID:    accountID,
		InstrumentID: instrumentID,
		Quantity:     quantity,
		CreatedAt:    now,
		ModifiedAt:   now,
	})
}
