package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/advisor/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.throttled(s.handleRegister))
	mux.HandleFunc("/api/auth/login", s.throttled(s.handleLogin))
	mux.HandleFunc("/api/auth/refresh-token", s.handleRefreshToken)
	mux.HandleFunc("/api/auth/verify-email", s.handleVerifyEmail)
	mux.HandleFunc("/api/auth/forgot-password", s.throttled(s.handleForgotPassword))
	mux.HandleFunc("/api/auth/reset-password", s.throttled(s.handleResetPassword))
	mux.HandleFunc("/api/auth/logout", s.requireSession(s.handleLogout))

	// Instruments
	mux.HandleFunc("/api/instruments", s.handleInstrumentList)

	// Clients
	mux.HandleFunc("/api/clients/", s.requireSession(s.routeClients))
}

// routeClients dispatches /api/clients/{id}/* to the appropriate handler.
func (s *Server) routeClients(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/clients/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "client id is required in path")
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	if !s.authorizeClient(w, r, id) {
		return
	}

	switch subpath {
	case "":
		s.handleClientGet(w, r, id)
	case "deposit":
		s.handleDeposit(w, r, id)
	case "profile":
		s.handleProfile(w, r, id)
	case "recommendation":
		s.handleRecommendation(w, r, id)
	case "recommendation/invest":
		s.handleRecommendationInvest(w, r, id)
	case "portfolio":
		s.handlePortfolio(w, r, id)
	case "portfolio/buy":
		s.handlePortfolioBuy(w, r, id)
	case "portfolio/sell":
		s.handlePortfolioSell(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
