package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"freelance/internal/auth"
	"freelance/internal/core"
	"freelance/internal/services"
	"freelance/internal/theme"
)

// themeCookieMaxAge keeps the chosen theme for a year.
const themeCookieMaxAge = 365 * 24 * 60 * 60

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
			checks["store"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleThemeToggle flips the resolved theme and persists the choice.
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	next := s.currentTheme(r).Toggle()
	http.SetCookie(w, &http.Cookie{
		Name:     theme.CookieName,
		Value:    next.String(),
		Path:     "/",
		MaxAge:   themeCookieMaxAge,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if !isHTMX(r) {
		http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		Status(http.StatusNoContent).
		Trigger(EventThemeChanged, map[string]string{"theme": next.String()}).
		Write(w)
}

// validationMessage is the Italian text shown next to a form for a rejected input.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyRate), errors.Is(err, core.ErrEmptyClientName):
		return "Per favore, compila tutti i campi obbligatori (Nome Cliente e Tariffa Lorda)."
	case errors.Is(err, core.ErrInvalidRate), errors.Is(err, core.ErrNegativeRate):
		return "La tariffa lorda deve essere un numero valido."
	case errors.Is(err, core.ErrClientNameLength):
		return "Il nome del cliente può contenere al massimo 100 caratteri."
	case errors.Is(err, core.ErrInvalidDate):
		return "Data non valida."
	case errors.Is(err, core.ErrInvalidMonth):
		return "Mese non valido."
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Le password non coincidono."
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "La password deve essere di almeno 6 caratteri."
	case errors.Is(err, services.ErrInvalidEmail):
		return "Inserisci un indirizzo email valido."
	case errors.Is(err, services.ErrConfirmationRequired):
		return "Conferma l'eliminazione del cliente."
	default:
		return "Dati non validi."
	}
}
