package http

import (
	"context"
	"net/http"
	"time"

	"freelance/internal/core"
	"freelance/internal/services"
)

// SessionCookie carries the signed session token.
const SessionCookie = "session"

type accountKey struct{}

func withAccount(ctx context.Context, acct core.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acct)
}

func accountFrom(ctx context.Context) (core.Account, bool) {
	acct, ok := ctx.Value(accountKey{}).(core.Account)
	return acct, ok
}

// accountID is only called behind requireAccount.
func accountID(r *http.Request) string {
	acct, _ := accountFrom(r.Context())
	return acct.ID
}

// requireAccount resolves the session cookie and sends anonymous visitors to /auth.
func (s *Server) requireAccount(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.sessionAccount(r)
		if !ok {
			if _, err := r.Cookie(SessionCookie); err == nil {
				s.clearSession(w)
			}
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", "/auth")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(withAccount(r.Context(), acct)))
	})
}

func (s *Server) sessionAccount(r *http.Request) (core.Account, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return core.Account{}, false
	}
	acct, err := s.auth.CurrentUser(r.Context(), c.Value)
	if err != nil {
		s.logger.DebugContext(r.Context(), "Session rejected", "error", err)
		return core.Account{}, false
	}
	return acct, true
}

func (s *Server) setSession(w http.ResponseWriter, sess services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
