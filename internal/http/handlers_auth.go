package http

import (
	"errors"
	"net/http"
	"strings"

	"freelance/internal/auth"
	"freelance/internal/core"
	"freelance/internal/log"
	"freelance/internal/services"
)

// Auth screens reachable from /auth?mode=.
const (
	authModeSignIn = "signin"
	authModeSignUp = "signup"
	authModeReset  = "reset"
)

type authView struct {
	Mode string
}

func (s *Server) linkTarget(path string) string {
	return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + path
}

// handleAuthPage shows sign-in, sign-up or password recovery. Confirmation
// links land here too; app.js reads the token from the fragment.
func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionAccount(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	mode := r.URL.Query().Get("mode")
	switch mode {
	case authModeSignUp, authModeReset:
	default:
		mode = authModeSignIn
	}
	s.render(w, r, NewHTMXResponse(), "auth.html", s.newPage(r, "Accedi", "auth", authView{Mode: mode}))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	sess, err := s.auth.SignIn(r.Context(), body.Get("email"), body.Raw("password"))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidCredentials):
		ErrorResponse(http.StatusUnauthorized, "Email o password non validi.").Write(w)
		return
	case errors.Is(err, services.ErrNotConfirmed):
		ErrorResponse(http.StatusForbidden, "Conferma il tuo indirizzo email prima di accedere.").Write(w)
		return
	default:
		s.errorResponse(r, err, log.ComponentAuth, "signin", "Accesso non riuscito, riprova più tardi.").Write(w)
		return
	}

	s.setSession(w, sess)
	s.logger.InfoContext(r.Context(), "Signed in", log.FieldAccountID, sess.AccountID)
	redirect(w, r, "/")
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	err := s.auth.SignUp(r.Context(), body.Get("email"), body.Raw("password"), s.linkTarget("/auth"))
	switch {
	case err == nil:
		SuccessResponse("Registrazione avvenuta! Controlla la tua email per la verifica.").Write(w)
	case errors.Is(err, core.ErrEmailTaken):
		ConflictError("Questo indirizzo email è già registrato.").Write(w)
	default:
		s.errorResponse(r, err, log.ComponentAuth, "signup", "Registrazione non riuscita, riprova più tardi.").Write(w)
	}
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	redirect(w, r, "/auth")
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	err := s.auth.RequestPasswordReset(r.Context(), body.Get("email"), s.linkTarget("/auth/reset-password"))
	if err != nil {
		s.errorResponse(r, err, log.ComponentAuth, "reset", "Invio dell'email non riuscito, riprova più tardi.").Write(w)
		return
	}
	SuccessResponse("Email di recupero password inviata! Controlla la tua casella di posta.").Write(w)
}

// handleConfirm redeems a sign-up token, opens a session and shows the
// confirmation screen that forwards to the dashboard.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	sess, err := s.auth.Confirm(r.Context(), body.Get("access_token"))
	if err != nil {
		if isTokenError(err) || services.IsNotFound(err) {
			BadRequestError("Link di conferma non valido o scaduto.").Write(w)
			return
		}
		s.errorResponse(r, err, log.ComponentAuth, "confirm", "Conferma non riuscita, riprova più tardi.").Write(w)
		return
	}

	s.setSession(w, sess)
	s.logger.InfoContext(r.Context(), "Email confirmed", log.FieldAccountID, sess.AccountID)
	s.render(w, r, NewHTMXResponse(), "auth_confirmed", nil)
}

func (s *Server) handleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, NewHTMXResponse(), "reset_password.html", s.newPage(r, "Imposta Nuova Password", "auth", nil))
}

// handleUpdatePassword sets the new password carried with a recovery token.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	err := s.auth.UpdatePassword(r.Context(), body.Get("access_token"), body.Raw("password"), body.Raw("confirm"))
	if err != nil {
		if isTokenError(err) || services.IsNotFound(err) {
			BadRequestError("Link di recupero non valido o scaduto.").Write(w)
			return
		}
		s.errorResponse(r, err, log.ComponentAuth, "password", "Aggiornamento della password non riuscito.").Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "password_updated", nil)
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrWrongPurpose)
}
