package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/advisor/internal/models"
)

// authorizeClient checks that the session may act on the given client ID.
// Clients may only touch their own account; admin sessions may touch any.
func (s *Server) authorizeClient(w http.ResponseWriter, r *http.Request, clientID string) bool {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authorization required")
		return false
	}
	if claims.Role != models.RoleAdmin && claims.AccountID != clientID {
		WriteError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

// handleInstrumentList handles GET /api/instruments.
func (s *Server) handleInstrumentList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	instruments, err := s.app.Instruments.FindAll(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, instruments)
}

// handleClientGet handles GET /api/clients/{id}.
func (s *Server) handleClientGet(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	account, err := s.app.Accounts.FindByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if account == nil {
		WriteError(w, http.StatusNotFound, "account not found")
		return
	}
	WriteJSON(w, http.StatusOK, account.Public())
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

// handleDeposit handles POST /api/clients/{id}/deposit.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req depositRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := s.app.Trading.Deposit(r.Context(), id, models.AmountToCents(req.Amount))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

// handleProfile handles POST /api/clients/{id}/profile (questionnaire).
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var answers models.QuestionnaireAnswers
	if !DecodeJSON(w, r, &answers) {
		return
	}

	profile, err := s.app.Advice.SetProfile(r.Context(), id, answers)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// handleRecommendation handles GET /api/clients/{id}/recommendation.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	rec, err := s.app.Advice.Recommend(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// handleRecommendationInvest handles POST /api/clients/{id}/recommendation/invest.
// The recommendation is recomputed server-side so a stale or tampered client
// copy cannot change the allocation.
func (s *Server) handleRecommendationInvest(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	rec, err := s.app.Advice.Recommend(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	portfolio, err := s.app.Trading.InvestRecommendation(r.Context(), id, rec)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

// handlePortfolio handles GET /api/clients/{id}/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	portfolio, err := s.app.Trading.GetPortfolio(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

type buyRequest struct {
	InstrumentID string  `json:"instrument_id"`
	Amount       float64 `json:"amount"`
}

// handlePortfolioBuy handles POST /api/clients/{id}/portfolio/buy.
func (s *Server) handlePortfolioBuy(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req buyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	portfolio, err := s.app.Trading.Buy(r.Context(), id, req.InstrumentID, models.AmountToCents(req.Amount))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

type sellRequest struct {
	InstrumentID string          `json:"instrument_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// handlePortfolioSell handles POST /api/clients/{id}/portfolio/sell.
func (s *Server) handlePortfolioSell(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req sellRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	portfolio, err := s.app.Trading.Sell(r.Context(), id, req.InstrumentID, req.Quantity)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}
