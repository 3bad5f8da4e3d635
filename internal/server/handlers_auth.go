package server

import (
	"net/http"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister handles POST /api/auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := s.app.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefreshToken handles POST /api/auth/refresh-token.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	accessToken, err := s.app.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// handleVerifyEmail handles POST /api/auth/verify-email. The token may come
// in the body or, for emailed links, as a query parameter.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost, http.MethodGet) {
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" && r.Method == http.MethodPost {
		var req verifyEmailRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		token = req.Token
	}

	if err := s.app.Auth.VerifyEmail(r.Context(), token); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword handles POST /api/auth/forgot-password. The response
// is the same whether or not the email is registered.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req forgotPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.app.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "if the email is registered, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// handleResetPassword handles POST /api/auth/reset-password.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req resetPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.app.Auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// handleLogout handles POST /api/auth/logout (bearer).
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	claims, ok := SessionFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	if err := s.app.Auth.Logout(r.Context(), claims.AccountID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
