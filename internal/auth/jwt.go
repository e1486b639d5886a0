// Package auth issues and verifies the signed tokens used for sessions and
// for the links sent by email, and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongPurpose = errors.New("token issued for another purpose")
)

// Purpose tells apart tokens signed with the same key.
type Purpose string

const (
	PurposeSession  Purpose = "session"
	PurposeSignup   Purpose = "signup"
	PurposeRecovery Purpose = "recovery"
)

const (
	signupTTL   = 24 * time.Hour
	recoveryTTL = time.Hour
)

// Claims represents the custom JWT claims.
type Claims struct {
	AccountID string  `json:"account_id"`
	Email     string  `json:"email"`
	Purpose   Purpose `json:"purpose"`
	// Stamp is the account's credential stamp at issue time.
	Stamp int64 `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager handles JWT token generation and validation.
type TokenManager struct {
	secretKey  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a manager signing with HS256.
// secretKey should be a strong random string of at least 32 bytes.
func NewTokenManager(secretKey string, sessionTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:  []byte(secretKey),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) SessionTTL() time.Duration {
	return m.sessionTTL
}

// Issue signs a token for the account with the lifetime of its purpose.
func (m *TokenManager) Issue(accountID, email string, stamp int64, purpose Purpose) (string, error) {
	now := m.now()
	claims := &Claims{
		AccountID: accountID,
		Email:     email,
		Purpose:   purpose,
		Stamp:     stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl(purpose))),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses the token and checks its signature, expiry and purpose.
func (m *TokenManager) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func (m *TokenManager) ttl(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeSignup:
		return signupTTL
	case PurposeRecovery:
		return recoveryTTL
	default:
		return m.sessionTTL
	}
}
