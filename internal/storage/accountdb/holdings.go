package accountdb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/advisor/internal/models"
)

// HoldingStore implements interfaces.HoldingsStore.
type HoldingStore struct {
	*DB
}

// holdingKeySep is the composite key separator. A null byte avoids
// collisions with any printable ID characters.
const holdingKeySep = "\x00"

// holdingKey builds the storage key: account_id + \x00 + instrument_id
func holdingKey(accountID, instrumentID string) string {
	return accountID + holdingKeySep + instrumentID
}

func (s *HoldingStore) FindByAccount(_ context.Context, accountID string) ([]*models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Find(&holdings, badgerhold.Where("AccountID").Eq(accountID)); err != nil {
		return nil, fmt.Errorf("failed to find holdings for account '%s': %w", accountID, err)
	}
	result := make([]*models.Holding, 0, len(holdings))
	for i := range holdings {
		result = append(result, &holdings[i])
	}
	return result, nil
}

func (s *HoldingStore) FindByAccountAndInstrument(_ context.Context, accountID, instrumentID string) (*models.Holding, error) {
	var holding models.Holding
	if err := s.db.Get(holdingKey(accountID, instrumentID), &holding); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

func (s *HoldingStore) Create(_ context.Context, holding *models.Holding) error {
	key := holdingKey(holding.AccountID, holding.InstrumentID)
	if err := s.db.Insert(key, holding); err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

func (s *HoldingStore) UpdateQuantity(_ context.Context, accountID, instrumentID string, quantity decimal.Decimal) error {
	key := holdingKey(accountID, instrumentID)
	var holding models.Holding
	if err := s.db.Get(key, &holding); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("holding for instrument '%s' not found", instrumentID)
		}
		return fmt.Errorf("failed to get holding: %w", err)
	}
	holding.Quantity = quantity
	holding.ModifiedAt = time.Now()
	if err := s.db.Upsert(key, &holding); err != nil {
		return fmt.Errorf("failed to update holding quantity: %w", err)
	}
	return nil
}

func (s *HoldingStore) Delete(_ context.Context, accountID, instrumentID string) error {
	key := holdingKey(accountID, instrumentID)
	if err := s.db.Delete(key, models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func (s *HoldingStore) DeleteByAccount(ctx context.Context, accountID string) error {
	holdings, err := s.FindByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, h := range holdings {
		if err := s.Delete(ctx, accountID, h.InstrumentID); err != nil {
			return err
		}
	}
	return nil
}
