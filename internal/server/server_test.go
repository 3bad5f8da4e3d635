package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/advisor/internal/app"
	"github.com/bobmcallan/advisor/internal/auth"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/services/advice"
	"github.com/bobmcallan/advisor/internal/services/trading"
	"github.com/bobmcallan/advisor/internal/storage/accountdb"
)

// captureMailer records tokens so tests can complete verification and
// reset flows.
type captureMailer struct {
	mu                 sync.Mutex
	verificationTokens map[string]string
	resetTokens        map[string]string
	sent               chan struct{}
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		verificationTokens: make(map[string]string),
		resetTokens:        make(map[string]string),
		sent:               make(chan struct{}, 16),
	}
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	m.verificationTokens[email] = token
	m.mu.Unlock()
	m.sent <- struct{}{}
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	m.resetTokens[email] = token
	m.mu.Unlock()
	m.sent <- struct{}{}
	return nil
}

func (m *captureMailer) waitForMail(t *testing.T) {
	t.Helper()
	select {
	case <-m.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for email")
	}
}

func (m *captureMailer) verificationToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verificationTokens[email]
}

func (m *captureMailer) resetToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetTokens[email]
}

type testEnv struct {
	handler http.Handler
	mailer  *captureMailer
	app     *app.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Path = t.TempDir()
	logger := common.NewSilentLogger()

	db, err := accountdb.Open(logger, cfg.Storage.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := db.Accounts()
	holdings := db.Holdings()
	instruments := db.Instruments()
	mail := newCaptureMailer()
	issuer := auth.NewTokenIssuer(&cfg.Auth)

	a := &app.App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Accounts:    accounts,
		Holdings:    holdings,
		Instruments: instruments,
		Mailer:      mail,
		TokenIssuer: issuer,
		Auth:        auth.NewService(accounts, issuer, mail, &cfg.Auth, logger),
		Advice:      advice.NewService(accounts, instruments, logger),
		Trading:     trading.NewService(accounts, holdings, instruments, logger),
		StartupTime: time.Now(),
	}
	return &testEnv{
		handler: NewServer(a).Handler(),
		mailer:  mail,
		app:     a,
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// registerAndLogin creates a verified account and returns its login result.
func (e *testEnv) registerAndLogin(t *testing.T, email, password string) *interfaces.LoginResult {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test User", "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e.mailer.waitForMail(t)

	rec = e.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"token": e.mailer.verificationToken(email),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result interfaces.LoginResult
	decodeBody(t, rec, &result)
	return &result
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	rec = env.do(t, http.MethodGet, "/api/version", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "weak_password", errResp.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "Str0ng!pass"}
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	env.mailer.waitForMail(t)

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginBeforeVerification(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	env.mailer.waitForMail(t)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "Wr0ng!pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	login := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")

	rec := env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp["access_token"])

	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmailErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"token": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{"token": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")

	rec := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env.mailer.waitForMail(t)

	// Unknown email gets the same 200.
	rec = env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": env.mailer.resetToken("alice@example.com"), "new_password": "N3w!password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "N3w!password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	login := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The refresh session is gone.
	rec = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInstrumentList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/instruments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var instruments []models.Instrument
	decodeBody(t, rec, &instruments)
	assert.Len(t, instruments, len(accountdb.DefaultInstruments()))
}

func TestClientAccessControl(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")
	bob := env.registerAndLogin(t, "bob@example.com", "Str0ng!pass")

	path := "/api/clients/" + alice.Account.ID

	// No token.
	rec := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Another client's token.
	rec = env.do(t, http.MethodGet, path, bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Own token.
	rec = env.do(t, http.MethodGet, path, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var account models.PublicAccount
	decodeBody(t, rec, &account)
	assert.Equal(t, "alice@example.com", account.Email)

	// Admin token reaches any client.
	recLogin := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": env.app.Config.Auth.AdminEmail, "password": env.app.Config.Auth.AdminPassword,
	})
	require.Equal(t, http.StatusOK, recLogin.Code)
	var admin interfaces.LoginResult
	decodeBody(t, recLogin, &admin)

	rec = env.do(t, http.MethodGet, path, admin.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdvisoryFlow(t *testing.T) {
	env := newTestEnv(t)
	login := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")
	id := login.Account.ID
	token := login.AccessToken
	base := "/api/clients/" + id

	// Deposit 10,000.00.
	rec := env.do(t, http.MethodPost, base+"/deposit", token, map[string]float64{"amount": 10000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var account models.PublicAccount
	decodeBody(t, rec, &account)
	assert.Equal(t, 10000.0, account.Balance)

	// Recommendation before the questionnaire is a 400.
	rec = env.do(t, http.MethodGet, base+"/recommendation", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Questionnaire scoring into the aggressive band.
	rec = env.do(t, http.MethodPost, base+"/profile", token, map[string]string{
		"age": "A", "finances": "C", "objective": "E",
		"liquidity": "C", "loss_reaction": "E", "market_knowledge": "D",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile models.RiskProfile
	decodeBody(t, rec, &profile)
	assert.Equal(t, models.ProfileAggressive, profile.ID)

	rec = env.do(t, http.MethodGet, base+"/recommendation", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recommendation models.Recommendation
	decodeBody(t, rec, &recommendation)
	require.Len(t, recommendation.Targets, 4)

	// Invest the whole balance.
	rec = env.do(t, http.MethodPost, base+"/recommendation/invest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var portfolio models.Portfolio
	decodeBody(t, rec, &portfolio)
	assert.Equal(t, 0.0, portfolio.Balance)
	assert.Len(t, portfolio.Holdings, 4)

	// Re-investing with an empty balance is a 402.
	rec = env.do(t, http.MethodPost, base+"/recommendation/invest", token, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestTradingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	login := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")
	id := login.Account.ID
	token := login.AccessToken
	base := "/api/clients/" + id

	rec := env.do(t, http.MethodPost, base+"/deposit", token, map[string]float64{"amount": 1000})
	require.Equal(t, http.StatusOK, rec.Code)

	// Buy 500.00 of the 100.00 money market fund.
	rec = env.do(t, http.MethodPost, base+"/portfolio/buy", token, map[string]interface{}{
		"instrument_id": "money-market-fund", "amount": 500,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var portfolio models.Portfolio
	decodeBody(t, rec, &portfolio)
	assert.Equal(t, 500.0, portfolio.Balance)
	require.Len(t, portfolio.Holdings, 1)

	// Buy beyond the balance.
	rec = env.do(t, http.MethodPost, base+"/portfolio/buy", token, map[string]interface{}{
		"instrument_id": "money-market-fund", "amount": 600,
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Unknown instrument.
	rec = env.do(t, http.MethodPost, base+"/portfolio/buy", token, map[string]interface{}{
		"instrument_id": "no-such-fund", "amount": 10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Sell more than held.
	rec = env.do(t, http.MethodPost, base+"/portfolio/sell", token, map[string]interface{}{
		"instrument_id": "money-market-fund", "quantity": "10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Sell with no position.
	rec = env.do(t, http.MethodPost, base+"/portfolio/sell", token, map[string]interface{}{
		"instrument_id": "gov-bond-fund", "quantity": "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Sell the whole position.
	rec = env.do(t, http.MethodPost, base+"/portfolio/sell", token, map[string]interface{}{
		"instrument_id": "money-market-fund", "quantity": "5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &portfolio)
	assert.Equal(t, 1000.0, portfolio.Balance)
	assert.Empty(t, portfolio.Holdings)

	rec = env.do(t, http.MethodGet, base+"/portfolio", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownClientSubpath(t *testing.T) {
	env := newTestEnv(t)
	login := env.registerAndLogin(t, "alice@example.com", "Str0ng!pass")

	rec := env.do(t, http.MethodGet, "/api/clients/"+login.Account.ID+"/unknown", login.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthThrottle(t *testing.T) {
	env := newTestEnv(t)

	// Burst capacity is 10; the requests beyond it get throttled.
	throttled := false
	for i := 0; i < 20; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": fmt.Sprintf("u%d@example.com", i), "password": "Str0ng!pass",
		})
		if rec.Code == http.StatusTooManyRequests {
			throttled = true
			break
		}
	}
	assert.True(t, throttled, "expected throttling within a 20-request burst")
}
