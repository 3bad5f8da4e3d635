// Package advice computes an account's risk profile from the six-question
// suitability questionnaire and turns the profile into a model portfolio
// drawn from the instrument catalog.
package advice

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/advisor/internal/apperr"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
)

// Score cutoffs between the three profiles. A total of 6..12 is
// conservative, 13..20 moderate, 21+ aggressive.
const (
	conservativeMaxScore = 12
	moderateMaxScore     = 20
)

// questionScores maps each questionnaire answer letter to its point value.
var questionScores = map[string]map[string]int{
	"age":              {"A": 5, "B": 5, "C": 4, "D": 3, "E": 2, "F": 1},
	"finances":         {"A": 1, "B": 3, "C": 5, "D": 2},
	"objective":        {"A": 1, "B": 2, "C": 4, "D": 4, "E": 5},
	"liquidity":        {"A": 1, "B": 2, "C": 3},
	"loss_reaction":    {"A": 1, "B": 2, "C": 3, "D": 4, "E": 5},
	"market_knowledge": {"A": 1, "B": 2, "C": 4, "D": 5},
}

// strategyLine is one slice of a model portfolio: a risk tier and the
// percentage of investable cash allocated to an instrument of that tier.
type strategyLine struct {
	risk       string
	percentage int64
}

// strategies defines the fixed percentage split per profile. Each profile's
// percentages sum to 100; repeated tiers take distinct instruments from the
// catalog in catalog order.
var strategies = map[int][]strategyLine{
	models.ProfileConservative: {
		{risk: models.RiskLow, percentage: 60},
		{risk: models.RiskLow, percentage: 25},
		{risk: models.RiskMedium, percentage: 15},
	},
	models.ProfileModerate: {
		{risk: models.RiskLow, percentage: 30},
		{risk: models.RiskMedium, percentage: 40},
		{risk: models.RiskMedium, percentage: 20},
		{risk: models.RiskHigh, percentage: 10},
	},
	models.ProfileAggressive: {
		{risk: models.RiskLow, percentage: 10},
		{risk: models.RiskMedium, percentage: 30},
		{risk: models.RiskHigh, percentage: 40},
		{risk: models.RiskHigh, percentage: 20},
	},
}

// Service implements interfaces.AdviceService.
type Service struct {
	accounts interfaces.CredentialStore
	catalog  interfaces.InstrumentCatalog
	logger   *common.Logger
}

// NewService creates the advice service.
func NewService(accounts interfaces.CredentialStore, catalog interfaces.InstrumentCatalog, logger *common.Logger) *Service {
	return &Service{accounts: accounts, catalog: catalog, logger: logger}
}

// SetProfile scores the questionnaire and stores the resulting risk profile
// on the account.
func (s *Service) SetProfile(ctx context.Context, accountID string, answers models.QuestionnaireAnswers) (*models.RiskProfile, error) {
	score, err := ScoreAnswers(answers)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.KindAccountNotFound, "account not found")
	}

	profile, _ := models.RiskProfileByID(profileForScore(score))
	if err := s.accounts.UpdateRiskProfile(ctx, account.ID, profile.ID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Int("score", score).
		Str("profile", profile.Name).
		Msg("Risk profile assigned")
	return &profile, nil
}

// Recommend builds the model portfolio for the account's stored risk
// profile. The recommendation is computed at request time and never
// persisted; instrument prices are current as of the call.
func (s *Service) Recommend(ctx context.Context, accountID string) (*models.Recommendation, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.KindAccountNotFound, "account not found")
	}
	if account.RiskProfileID == 0 {
		return nil, apperr.New(apperr.KindValidation, "risk profile not set, complete the questionnaire first")
	}

	profile, ok := models.RiskProfileByID(account.RiskProfileID)
	if !ok {
		return nil, fmt.Errorf("account %s has unknown risk profile %d", account.ID, account.RiskProfileID)
	}

	instruments, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	targets, err := buildTargets(strategies[profile.ID], instruments)
	if err != nil {
		return nil, err
	}
	return &models.Recommendation{Profile: profile, Targets: targets}, nil
}

// ScoreAnswers totals the questionnaire. Every answer must be a valid option
// letter for its question.
func ScoreAnswers(answers models.QuestionnaireAnswers) (int, error) {
	fields := []struct {
		question string
		answer   string
	}{
		{"age", answers.Age},
		{"finances", answers.Finances},
		{"objective", answers.Objective},
		{"liquidity", answers.Liquidity},
		{"loss_reaction", answers.LossReaction},
		{"market_knowledge", answers.MarketKnowledge},
	}

	total := 0
	for _, f := range fields {
		points, ok := questionScores[f.question][strings.ToUpper(strings.TrimSpace(f.answer))]
		if !ok {
			return 0, apperr.Newf(apperr.KindValidation, "invalid answer %q for question %q", f.answer, f.question)
		}
		total += points
	}
	return total, nil
}

// profileForScore maps a questionnaire total to a profile ID.
func profileForScore(score int) int {
	switch {
	case score <= conservativeMaxScore:
		return models.ProfileConservative
	case score <= moderateMaxScore:
		return models.ProfileModerate
	default:
		return models.ProfileAggressive
	}
}

// buildTargets resolves each strategy line to a distinct instrument of the
// line's risk tier, taken in catalog order. A catalog without enough
// instruments in a tier is a deployment misconfiguration, not a client error.
func buildTargets(lines []strategyLine, instruments []*models.Instrument) ([]models.AllocationTarget, error) {
	byRisk := make(map[string][]*models.Instrument)
	for _, inst := range instruments {
		byRisk[inst.Risk] = append(byRisk[inst.Risk], inst)
	}

	targets := make([]models.AllocationTarget, 0, len(lines))
	for _, line := range lines {
		pool := byRisk[line.risk]
		if len(pool) == 0 {
			return nil, fmt.Errorf("instrument catalog has no remaining %s-risk instrument for strategy", line.risk)
		}
		inst := pool[0]
		byRisk[line.risk] = pool[1:]
		targets = append(targets, models.AllocationTarget{
			Instrument: *inst,
			Percentage: line.percentage,
		})
	}
	return targets, nil
}
