package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"freelance/internal/auth"
	"freelance/internal/core"
	"freelance/internal/store"
)

// Session is a signed-in account and the token that proves it.
type Session struct {
	Token     string
	AccountID string
	Email     string
	ExpiresAt time.Time
}

// AuthService hosts sign-up, sign-in and password recovery for accounts.
type AuthService struct {
	accounts store.AccountStore
	tokens   *auth.TokenManager
	mailer   Mailer
	now      func() time.Time
}

func NewAuthService(accounts store.AccountStore, tokens *auth.TokenManager, mailer Mailer) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		mailer:   mailer,
		now:      time.Now,
	}
}

// SignUp stores an unconfirmed account and emails a confirmation link pointing at redirect.
func (s *AuthService) SignUp(ctx context.Context, email, password, redirect string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(password, nil); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	account, err := s.accounts.CreateAccount(ctx, core.Account{Email: email, PasswordHash: hash})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.CredentialStamp(), auth.PurposeSignup)
	if err != nil {
		return err
	}
	link := fragmentLink(redirect, token, auth.PurposeSignup)
	if err := s.mailer.SendEmail(ctx, account.Email,
		"Conferma la tua registrazione",
		"Clicca sul link per confermare il tuo indirizzo email.",
		link); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "account_id", account.ID)
	return nil
}

// Confirm marks the account of a sign-up token as confirmed and opens a session.
func (s *AuthService) Confirm(ctx context.Context, token string) (Session, error) {
	account, err := s.verify(ctx, token, auth.PurposeSignup)
	if err != nil {
		return Session{}, err
	}
	if err := s.accounts.ConfirmAccount(ctx, account.ID, s.now()); err != nil {
		return Session{}, fmt.Errorf("confirm account: %w", err)
	}
	return s.session(account)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, core.ErrAccountNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account: %w", err)
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if !account.IsConfirmed() {
		return Session{}, ErrNotConfirmed
	}
	return s.session(account)
}

// RequestPasswordReset emails a recovery link when the address belongs to an
// account. Unknown addresses get the same answer.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirect string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, core.ErrAccountNotFound) {
		slog.DebugContext(ctx, "Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.CredentialStamp(), auth.PurposeRecovery)
	if err != nil {
		return err
	}
	link := fragmentLink(redirect, token, auth.PurposeRecovery)
	if err := s.mailer.SendEmail(ctx, account.Email,
		"Recupero password",
		"Clicca sul link per impostare una nuova password.",
		link); err != nil {
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}

// UpdatePassword sets a new password using a recovery token. The change moves
// the account's credential stamp, so the token and every open session stop working.
func (s *AuthService) UpdatePassword(ctx context.Context, token, password, confirm string) error {
	if err := auth.ValidatePassword(password, &confirm); err != nil {
		return err
	}
	account, err := s.verify(ctx, token, auth.PurposeRecovery)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, s.now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slog.InfoContext(ctx, "Password updated", "account_id", account.ID)
	return nil
}

// CurrentUser resolves a session token to its account.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (core.Account, error) {
	return s.verify(ctx, token, auth.PurposeSession)
}

// verify checks the token and loads its account. Tokens issued before the
// last password change are rejected as invalid.
func (s *AuthService) verify(ctx context.Context, token string, purpose auth.Purpose) (core.Account, error) {
	claims, err := s.tokens.Verify(token, purpose)
	if err != nil {
		return core.Account{}, err
	}
	account, err := s.accounts.GetAccount(ctx, claims.AccountID)
	if err != nil {
		return core.Account{}, err
	}
	if claims.Stamp != account.CredentialStamp() {
		return core.Account{}, fmt.Errorf("%w: issued before the last password change", auth.ErrInvalidToken)
	}
	return account, nil
}

func (s *AuthService) session(account core.Account) (Session, error) {
	token, err := s.tokens.Issue(account.ID, account.Email, account.CredentialStamp(), auth.PurposeSession)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		AccountID: account.ID,
		Email:     account.Email,
		ExpiresAt: s.now().Add(s.tokens.SessionTTL()),
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// fragmentLink puts the token in the URL fragment so it never reaches server logs.
func fragmentLink(redirect, token string, purpose auth.Purpose) string {
	v := url.Values{}
	v.Set("access_token", token)
	v.Set("type", string(purpose))
	return strings.TrimSuffix(redirect, "#") + "#" + v.Encode()
}
