package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/advisor/internal/apperr"
	"github.com/bobmcallan/advisor/internal/common"
)

const tokenIssuer = "advisor-server"

// SessionClaims are the verified contents of an access or refresh token.
type SessionClaims struct {
	AccountID string
	Role      string
}

// TokenIssuer signs and verifies access and refresh session tokens.
// The two token classes use distinct secrets: the access secret travels with
// every request and its compromise must not allow forging refresh tokens.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenIssuer builds a TokenIssuer from auth configuration.
func NewTokenIssuer(cfg *common.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessExpiry:  cfg.GetAccessTokenExpiry(),
		refreshExpiry: cfg.GetRefreshTokenExpiry(),
	}
}

// IssueAccessToken signs a short-lived access token for the given identity.
func (t *TokenIssuer) IssueAccessToken(accountID, role string) (string, error) {
	return signToken(accountID, role, t.accessSecret, t.accessExpiry)
}

// IssueRefreshToken signs a long-lived refresh token for the given identity.
func (t *TokenIssuer) IssueRefreshToken(accountID, role string) (string, error) {
	return signToken(accountID, role, t.refreshSecret, t.refreshExpiry)
}

// RefreshExpiry returns the configured refresh token lifetime. The auth
// service uses it to stamp the stored hash's expiry.
func (t *TokenIssuer) RefreshExpiry() time.Duration {
	return t.refreshExpiry
}

// VerifyAccessToken parses and validates an access token.
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*SessionClaims, error) {
	return verifyToken(tokenString, t.accessSecret)
}

// VerifyRefreshToken parses and validates a refresh token signature and
// expiry. Callers must still check the stored hash for revocation.
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*SessionClaims, error) {
	return verifyToken(tokenString, t.refreshSecret)
}

// signToken creates a signed HMAC-SHA256 JWT with the session claims.
func signToken(accountID, role string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  accountID,
		"role": role,
		"iss":  tokenIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verifyToken parses and validates a JWT token string using the given secret.
func verifyToken(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid or expired token", err)
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return nil, apperr.New(apperr.KindInvalidToken, "invalid token claims")
	}
	return &SessionClaims{AccountID: sub, Role: role}, nil
}
