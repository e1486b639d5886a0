package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)

	token, err := m.Issue("acc-1", "me@example.com", 0, PurposeSession)
	require.NoError(t, err)

	claims, err := m.Verify(token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "me@example.com", claims.Email)
	assert.Equal(t, PurposeSession, claims.Purpose)
	assert.Zero(t, claims.Stamp)

	stamped, err := m.Issue("acc-1", "me@example.com", 1709287200000000000, PurposeRecovery)
	require.NoError(t, err)
	claims, err = m.Verify(stamped, PurposeRecovery)
	require.NoError(t, err)
	assert.Equal(t, int64(1709287200000000000), claims.Stamp)
}

func TestTokenManager_RejectsWrongPurpose(t *testing.T) {
	m := NewTokenManager(secret, time.Hour)
	token, err := m.Issue("acc-1", "me@example.com", 0, PurposeRecovery)
	require.NoError(t, err)

	_, err = m.Verify(token, PurposeSession)
	assert.True(t, errors.Is(err, ErrWrongPurpose))
}

func TestTokenManager_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewTokenManager(secret, time.Hour)
	m.now = func() time.Time { return now }

	recovery, err := m.Issue("acc-1", "me@example.com", 0, PurposeRecovery)
	require.NoError(t, err)
	signup, err := m.Issue("acc-1", "me@example.com", 0, PurposeSignup)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Verify(recovery, PurposeRecovery)
	assert.True(t, errors.Is(err, ErrInvalidToken), "recovery links last one hour")
	_, err = m.Verify(signup, PurposeSignup)
	assert.NoError(t, err, "signup links last a day")
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenManager("another-secret-another-secret-xx", time.Hour).Issue("acc-1", "e", 0, PurposeSession)
	require.NoError(t, err)

	_, err = NewTokenManager(secret, time.Hour).Verify(token, PurposeSession)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = NewTokenManager(secret, time.Hour).Verify("not-a-token", PurposeSession)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidatePassword(t *testing.T) {
	ok := "secret1"
	other := "secret2"
	tests := []struct {
		name     string
		password string
		confirm  *string
		want     error
	}{
		{"valid without confirm", "abcdef", nil, nil},
		{"valid with confirm", ok, &ok, nil},
		{"too short", "abc", nil, ErrPasswordTooShort},
		{"mismatch wins over length", "abc", &other, ErrPasswordMismatch},
		{"mismatch", ok, &other, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password, tt.confirm))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
