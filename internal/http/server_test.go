package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance/internal/auth"
	"freelance/internal/cache"
	"freelance/internal/config"
	"freelance/internal/core"
	"freelance/internal/log"
	"freelance/internal/metrics"
	"freelance/internal/report"
	"freelance/internal/services"
	"freelance/internal/store/memory"
)

const (
	testEmail    = "mario@example.com"
	testPassword = "segreto123"
)

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *captureMailer) SendEmail(_ context.Context, _, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *captureMailer) last(t *testing.T) (string, string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links, "no email sent")
	u, err := url.Parse(m.links[len(m.links)-1])
	require.NoError(t, err)
	v, err := url.ParseQuery(u.Fragment)
	require.NoError(t, err)
	return u.Path, v.Get("access_token")
}

type testEnv struct {
	srv     *Server
	store   *memory.Store
	mailer  *captureMailer
	clients *services.ClientService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	months := cache.NewLRUCache[[]core.WorkDay](16, time.Minute)
	m := metrics.New()
	mailer := &captureMailer{}
	tokens := auth.NewTokenManager(strings.Repeat("k", 32), time.Hour)
	clients := services.NewClientService(st, months, m)

	cfg := &config.Config{Port: "0", PublicBaseURL: "http://app.test"}
	srv, err := NewServer(cfg, Deps{
		WorkDays: services.NewWorkDayService(st, st, months, nil, m),
		Clients:  clients,
		Revenue:  services.NewRevenueService(st),
		Auth:     services.NewAuthService(st, tokens, mailer),
		Store:    st,
		Metrics:  m,
		Logger:   log.New(log.Config{Level: slog.LevelError, Output: io.Discard}),
	})
	require.NoError(t, err)
	return &testEnv{srv: srv, store: st, mailer: mailer, clients: clients}
}

type reqOpt func(*http.Request)

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func asHTMX(r *http.Request) { r.Header.Set("HX-Request", "true") }

func (e *testEnv) do(method, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, opt := range opts {
		opt(req)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d)", rr.Code)
	return nil
}

// signIn registers and confirms testEmail and returns its session cookie.
func (e *testEnv) signIn(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	rr := e.do(http.MethodPost, "/auth/signup", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, token := e.mailer.last(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/confirm", strings.NewReader(`{"access_token":"`+token+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	acct, err := e.store.GetAccountByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	return sessionCookie(t, rr), acct.ID
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	}
}

func TestAnonymousRequestsGoToAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth", rr.Header().Get("Location"))

	rr = env.do(http.MethodGet, "/ui/calendar", nil, asHTMX)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "/auth", rr.Header().Get("HX-Redirect"))

	rr = env.do(http.MethodGet, "/clients", nil, withCookie(&http.Cookie{Name: SessionCookie, Value: "forged"}))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthPages(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/auth", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Gestisci le tue attività da freelance")
	assert.Contains(t, body, "Non hai un account? Registrati")
	assert.Contains(t, body, "Password dimenticata?")

	rr = env.do(http.MethodGet, "/auth?mode=signup", nil)
	assert.Contains(t, rr.Body.String(), "Hai già un account? Accedi")

	rr = env.do(http.MethodGet, "/auth?mode=reset", nil)
	assert.Contains(t, rr.Body.String(), "Inserisci la tua email per resettare la password.")

	rr = env.do(http.MethodGet, "/auth/reset-password", nil)
	assert.Contains(t, rr.Body.String(), "Imposta Nuova Password")
	assert.Contains(t, rr.Body.String(), "Conferma Nuova Password")
}

func TestSignUpConfirmAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	creds := url.Values{"email": {testEmail}, "password": {testPassword}}

	rr := env.do(http.MethodPost, "/auth/signup", url.Values{"email": {testEmail}, "password": {"corta"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "La password deve essere di almeno 6 caratteri.")

	rr = env.do(http.MethodPost, "/auth/signup", creds)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Registrazione avvenuta! Controlla la tua email per la verifica.")

	path, token := env.mailer.last(t)
	assert.Equal(t, "/auth", path)
	assert.NotEmpty(t, token)

	rr = env.do(http.MethodPost, "/auth/signup", creds)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(http.MethodPost, "/auth/signin", creds)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(http.MethodPost, "/auth/confirm", url.Values{"access_token": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodPost, "/auth/confirm", url.Values{"access_token": {token}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email Confermata!")
	assert.Contains(t, rr.Body.String(), `data-redirect="/"`)
	sessionCookie(t, rr)

	rr = env.do(http.MethodPost, "/auth/signin", url.Values{"email": {testEmail}, "password": {"sbagliata"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/auth/signin", creds)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)

	rr = env.do(http.MethodPost, "/auth/signin", creds, asHTMX)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("HX-Redirect"))

	rr = env.do(http.MethodGet, "/", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Accesso come")
	assert.Contains(t, rr.Body.String(), testEmail)

	rr = env.do(http.MethodGet, "/auth", nil, withCookie(cookie))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = env.do(http.MethodPost, "/auth/signout", nil, withCookie(cookie))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth", rr.Header().Get("Location"))
}

func TestPasswordRecovery(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)
	oldSession := withCookie(cookie)

	rr := env.do(http.MethodGet, "/", nil, oldSession)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodPost, "/auth/reset", url.Values{"email": {"nessuno@example.com"}})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodPost, "/auth/reset", url.Values{"email": {testEmail}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email di recupero password inviata!")

	path, token := env.mailer.last(t)
	assert.Equal(t, "/auth/reset-password", path)

	rr = env.do(http.MethodPost, "/auth/password", url.Values{
		"access_token": {token}, "password": {"abc"}, "confirm": {"xyz"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Le password non coincidono.")

	rr = env.do(http.MethodPost, "/auth/password", url.Values{
		"access_token": {token}, "password": {"nuova-password"}, "confirm": {"nuova-password"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password aggiornata con successo!")

	rr = env.do(http.MethodPost, "/auth/password", url.Values{
		"access_token": {token}, "password": {"altra-password"}, "confirm": {"altra-password"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "a recovery link works once")
	assert.Contains(t, rr.Body.String(), "Link di recupero non valido o scaduto.")

	rr = env.do(http.MethodGet, "/", nil, oldSession)
	assert.Equal(t, http.StatusSeeOther, rr.Code, "sessions opened before the change are closed")
	assert.Equal(t, "/auth", rr.Header().Get("Location"))

	rr = env.do(http.MethodPost, "/auth/signin", url.Values{"email": {testEmail}, "password": {"nuova-password"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	rr = env.do(http.MethodGet, "/", nil, withCookie(sessionCookie(t, rr)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestClientsAndCalendarFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie, acct := env.signIn(t)
	session := withCookie(cookie)

	rr := env.do(http.MethodGet, "/clients", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Nessun cliente trovato. Aggiungine uno per iniziare.")

	rr = env.do(http.MethodPost, "/clients", url.Values{"name": {""}, "gross_daily_rate": {"500"}}, session, asHTMX)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "#client-form-error", rr.Header().Get("HX-Retarget"))
	assert.Contains(t, rr.Body.String(), "Per favore, compila tutti i campi obbligatori")

	rr = env.do(http.MethodPost, "/clients", url.Values{"name": {"Acme"}, "gross_daily_rate": {"abc"}}, session, asHTMX)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "La tariffa lorda deve essere un numero valido.")

	rr = env.do(http.MethodPost, "/clients", url.Values{"name": {"Acme"}, "gross_daily_rate": {"500"}}, session, asHTMX)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Acme")
	assert.Contains(t, rr.Body.String(), "500,00 €")
	assert.Contains(t, rr.Body.String(), "325,00 €")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventClientsChanged)

	list, err := env.clients.List(context.Background(), acct)
	require.NoError(t, err)
	require.Len(t, list, 1)
	clientID := list[0].ID

	rr = env.do(http.MethodGet, "/ui/clients/form?id="+clientID, nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Modifica Cliente")
	assert.Contains(t, rr.Body.String(), `value="500"`)

	rr = env.do(http.MethodGet, "/ui/clients/form", nil, session)
	assert.Contains(t, rr.Body.String(), "Aggiungi Cliente")

	rr = env.do(http.MethodGet, "/ui/workdays/2024-03-04", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Gestisci 4/3/2024")
	assert.Contains(t, rr.Body.String(), "Nessun Cliente")
	assert.NotContains(t, rr.Body.String(), "-- Rimuovi Giorno --")

	rr = env.do(http.MethodPost, "/workdays/2024-03-04", url.Values{"client_id": {clientID}}, session, asHTMX)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Acme")
	assert.Contains(t, rr.Body.String(), "Marzo 2024")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), EventWorkDayChanged)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"date":"2024-03-04"`)

	rr = env.do(http.MethodGet, "/ui/workdays/2024-03-04", nil, session)
	assert.Contains(t, rr.Body.String(), "-- Rimuovi Giorno --")

	rr = env.do(http.MethodPost, "/workdays/2024-03-05", url.Values{"client_id": {""}}, session, asHTMX)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Header().Get("HX-Trigger"), EventWorkDayChanged)

	rr = env.do(http.MethodPost, "/workdays/2024-03-06", url.Values{"client_id": {"missing"}}, session, asHTMX)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "#day-dialog-error", rr.Header().Get("HX-Retarget"))

	rr = env.do(http.MethodPost, "/workdays/2024-02-30", url.Values{"client_id": {clientID}}, session, asHTMX)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(http.MethodGet, "/ui/revenue?year=2024&month=3", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Fatturato Lordo")
	assert.Contains(t, body, "500,00 €")
	assert.Contains(t, body, "Ripartizione Fatturato Lordo")

	rr = env.do(http.MethodGet, "/ui/revenue?year=2024&month=4", nil, session)
	assert.Contains(t, rr.Body.String(), "Nessuna giornata lavorativa trovata per questo mese.")

	rr = env.do(http.MethodPost, "/clients/"+clientID+"/delete", url.Values{}, session, asHTMX)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(http.MethodPost, "/clients/"+clientID+"/delete", url.Values{"confirm": {"true"}}, session, asHTMX)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Nessun cliente trovato.")

	rr = env.do(http.MethodGet, "/ui/calendar?year=2024&month=3", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), core.ClientMissingLabel)

	rr = env.do(http.MethodPost, "/workdays/2024-03-04", url.Values{"client_id": {services.RemoveSelection}}, session, asHTMX)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), core.ClientMissingLabel)
}

func TestExportPDF(t *testing.T) {
	env := newTestEnv(t)
	cookie, acct := env.signIn(t)
	session := withCookie(cookie)

	rr := env.do(http.MethodGet, "/revenue/export.pdf?year=2024&month=3", nil, session)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), report.NoDataMessage)

	c, err := env.clients.Create(context.Background(), acct, services.ClientInput{Name: "Beta", GrossDailyRate: "400"})
	require.NoError(t, err)
	rr = env.do(http.MethodPost, "/workdays/2024-03-11", url.Values{"client_id": {c.ID}}, session)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/revenue/export.pdf?year=2024&month=3", nil, session)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Fatturato_Marzo_2024.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))

	rr = env.do(http.MethodGet, "/revenue?year=2024&month=3", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Esporta PDF")
	assert.Contains(t, rr.Body.String(), `data-export="/revenue/export.pdf?year=2024&month=3"`)
}

func TestThemeToggle(t *testing.T) {
	env := newTestEnv(t)
	env.srv.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.Local) }

	rr := env.do(http.MethodGet, "/auth", nil)
	assert.Contains(t, rr.Body.String(), `data-theme="light"`)

	rr = env.do(http.MethodPost, "/theme/toggle", nil, asHTMX)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"theme":"dark"`)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "theme=dark")

	rr = env.do(http.MethodPost, "/theme/toggle", nil, withCookie(&http.Cookie{Name: "theme", Value: "dark"}), func(r *http.Request) {
		r.Header.Set("Referer", "http://example.com/clients")
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/clients", rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "theme=light")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/healthz", nil)
	env.do(http.MethodGet, "/nope", nil)

	rr := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `freelance_http_requests_total{code="200",method="GET",route="GET /healthz"} 1`)
	assert.Contains(t, body, `route="unmatched"`)
}

func TestShutdownStopsCacheSweeper(t *testing.T) {
	env := newTestEnv(t)
	mgr := cache.NewManager()
	mgr.StartCleanup(time.Hour)
	env.srv.caches = mgr

	require.NoError(t, env.srv.Shutdown(context.Background()))
	require.NoError(t, env.srv.Shutdown(context.Background()))
}

func TestMutatingFormsDisableSubmitWhileInFlight(t *testing.T) {
	env := newTestEnv(t)
	const disable = `hx-disabled-elt="find button[type=submit]"`
	const drop = `hx-sync="this:drop"`

	for _, path := range []string{"/auth", "/auth?mode=signup", "/auth?mode=reset", "/auth/reset-password"} {
		rr := env.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), disable, path)
		assert.Contains(t, rr.Body.String(), drop, path)
	}

	cookie, acct := env.signIn(t)
	session := withCookie(cookie)
	c, err := env.clients.Create(context.Background(), acct, services.ClientInput{Name: "Acme", GrossDailyRate: "500"})
	require.NoError(t, err)

	for _, path := range []string{"/ui/clients/form", "/ui/clients/form?id=" + c.ID, "/ui/workdays/2024-03-04"} {
		rr := env.do(http.MethodGet, path, nil, session)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), disable, path)
		assert.Contains(t, rr.Body.String(), drop, path)
	}

	rr := env.do(http.MethodGet, "/ui/clients", nil, session)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `hx-disabled-elt="this"`)
}
