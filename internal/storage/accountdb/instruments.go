package accountdb

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/advisor/internal/models"
)

// InstrumentStore implements interfaces.InstrumentCatalog. The catalog is
// read-only at runtime; it is seeded once on first open.
type InstrumentStore struct {
	*DB
}

func (s *InstrumentStore) FindByID(_ context.Context, id string) (*models.Instrument, error) {
	var instrument models.Instrument
	if err := s.db.Get(id, &instrument); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get instrument '%s': %w", id, err)
	}
	return &instrument, nil
}

func (s *InstrumentStore) FindAll(_ context.Context) ([]*models.Instrument, error) {
	var instruments []models.Instrument
	if err := s.db.Find(&instruments, nil); err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	result := make([]*models.Instrument, 0, len(instruments))
	for i := range instruments {
		result = append(result, &instruments[i])
	}
	return result, nil
}

// DefaultInstruments is the catalog seeded into an empty database. Every
// risk tier has enough depth for the largest strategy that draws on it.
func DefaultInstruments() []models.Instrument {
	return []models.Instrument{
		{ID: "gov-bond-fund", Name: "Government Bond Fund", Category: "fixed income", Risk: models.RiskLow, UnitPriceCents: 10550},
		{ID: "money-market-fund", Name: "Money Market Fund", Category: "cash equivalent", Risk: models.RiskLow, UnitPriceCents: 10000},
		{ID: "savings-note", Name: "Insured Savings Note", Category: "fixed income", Risk: models.RiskLow, UnitPriceCents: 5000},
		{ID: "corp-bond-fund", Name: "Corporate Bond Fund", Category: "fixed income", Risk: models.RiskMedium, UnitPriceCents: 9875},
		{ID: "balanced-fund", Name: "Balanced Multi-Asset Fund", Category: "multi-asset", Risk: models.RiskMedium, UnitPriceCents: 14200},
		{ID: "reit-fund", Name: "Real Estate Investment Fund", Category: "real estate", Risk: models.RiskMedium, UnitPriceCents: 8730},
		{ID: "equity-index-fund", Name: "Global Equity Index Fund", Category: "equity", Risk: models.RiskHigh, UnitPriceCents: 21340},
		{ID: "emerging-markets-fund", Name: "Emerging Markets Fund", Category: "equity", Risk: models.RiskHigh, UnitPriceCents: 11925},
		{ID: "small-cap-fund", Name: "Small Cap Growth Fund", Category: "equity", Risk: models.RiskHigh, UnitPriceCents: 16410},
	}
}

// seed loads the default catalog on first open. An existing catalog is
// left untouched.
func (s *InstrumentStore) seed() error {
	var existing []models.Instrument
	if err := s.db.Find(&existing, nil); err != nil {
		return fmt.Errorf("failed to check instrument catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	instruments := DefaultInstruments()
	for _, inst := range instruments {
		if err := s.db.Insert(inst.ID, inst); err != nil {
			return fmt.Errorf("failed to seed instrument '%s': %w", inst.ID, err)
		}
	}
	s.logger.Info().Int("count", len(instruments)).Msg("Seeded instrument catalog")
	return nil
}
