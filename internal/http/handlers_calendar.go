package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"freelance/internal/core"
	"freelance/internal/log"
	"freelance/internal/report"
	"freelance/internal/services"
)

// calendarView is the data behind the calendar_grid partial.
type calendarView struct {
	Calendar  core.Calendar
	Title     string
	Year      int
	Month     int
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
	// Colors maps client ids to their palette swatch.
	Colors     map[string]string
	HasClients bool
	Error      string
}

// dayDialogView is the data behind the day_dialog partial.
type dayDialogView struct {
	Date     string
	Label    string
	Clients  []core.Client
	Selected string
	Remove   string
}

// loadMonth fetches the clients and the month's work days concurrently.
func (s *Server) loadMonth(ctx context.Context, acct string, year int, month time.Month) ([]core.Client, []core.WorkDay, error) {
	var (
		clients []core.Client
		days    []core.WorkDay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.List(gctx, acct)
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.workDays.Month(gctx, acct, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clients, days, nil
}

func (s *Server) calendarView(ctx context.Context, acct string, year int, month time.Month) calendarView {
	py, pm := core.PrevMonth(year, month)
	ny, nm := core.NextMonth(year, month)
	v := calendarView{
		Year:      year,
		Month:     int(month),
		PrevYear:  py,
		PrevMonth: int(pm),
		NextYear:  ny,
		NextMonth: int(nm),
		Colors:    map[string]string{},
	}

	clients, days, err := s.loadMonth(ctx, acct, year, month)
	if err != nil {
		s.events.LogError(ctx, "Calendar load failed", err, log.ComponentWorkDay, log.OpList,
			log.NewFields().WithAccount(acct).WithMonth(year, int(month)))
		v.Error = "Impossibile recuperare le giornate lavorative."
		days = nil
	}

	v.Calendar = core.BuildCalendar(year, month, days, s.now())
	v.Title = v.Calendar.Title()
	v.HasClients = len(clients) > 0
	for i, c := range clients {
		v.Colors[c.ID] = report.Palette[i%len(report.Palette)]
	}
	return v
}

func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	view := s.calendarView(r.Context(), accountID(r), year, month)
	s.render(w, r, NewHTMXResponse(), "calendar.html", s.newPage(r, "Dashboard", "calendar", view))
}

// handleCalendarPartial renders the grid for month navigation.
func (s *Server) handleCalendarPartial(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	view := s.calendarView(r.Context(), accountID(r), year, month)
	s.render(w, r, NewHTMXResponse(), "calendar_grid", view)
}

// handleDayDialog renders the assignment dialog for one date, preselecting its current client.
func (s *Server) handleDayDialog(w http.ResponseWriter, r *http.Request) {
	date, err := parseDatePath(r)
	if err != nil {
		UnprocessableEntityError(validationMessage(core.ErrInvalidDate)).Write(w)
		return
	}
	acct := accountID(r)

	clients, days, err := s.loadMonth(r.Context(), acct, date.Year(), time.Month(date.Month()))
	if err != nil {
		s.errorResponse(r, err, log.ComponentClient, log.OpList, "Impossibile recuperare i clienti.").Write(w)
		return
	}

	view := dayDialogView{
		Date:    date.String(),
		Label:   formatItalianDate(date),
		Clients: clients,
		Remove:  services.RemoveSelection,
	}
	for _, wd := range days {
		if wd.Date.SameDay(date) {
			view.Selected = wd.ClientID
			break
		}
	}
	s.render(w, r, NewHTMXResponse(), "day_dialog", view)
}

// handleApplyWorkDay assigns, reassigns or clears the date and re-renders the month grid.
func (s *Server) handleApplyWorkDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDatePath(r)
	if err != nil {
		UnprocessableEntityError(validationMessage(core.ErrInvalidDate)).Retarget("#day-dialog-error").Write(w)
		return
	}
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Retarget("#day-dialog-error").Write(w)
		return
	}
	selection := body.Get("client_id")
	current := body.Get("current")
	acct := accountID(r)

	outcome, err := s.workDays.Apply(r.Context(), acct, date, selection)
	if err != nil {
		s.errorResponse(r, err, log.ComponentWorkDay, log.OpAssign, workDayFailureMessage(selection, current)).
			Retarget("#day-dialog-error").
			Write(w)
		return
	}

	switch outcome {
	case services.OutcomeAssigned:
		s.events.LogWorkDayChanged(r.Context(), log.OpAssign, acct, date.String(), selection)
	case services.OutcomeUnassigned:
		s.events.LogWorkDayChanged(r.Context(), log.OpUnassign, acct, date.String(), "")
	}

	view := s.calendarView(r.Context(), acct, date.Year(), time.Month(date.Month()))
	b := NewHTMXResponse().TriggerDialogClose()
	if outcome != services.OutcomeNone {
		b.TriggerWorkDayChanged(date)
	}
	s.render(w, r, b, "calendar_grid", view)
}

// workDayFailureMessage names the action that failed: removal, update of an
// existing assignment, or a new insertion.
func workDayFailureMessage(selection, current string) string {
	switch {
	case selection == services.RemoveSelection:
		return "Errore nella rimozione della giornata lavorativa"
	case current != "":
		return "Errore nell'aggiornamento della giornata lavorativa"
	default:
		return "Errore nell'inserimento della giornata lavorativa"
	}
}
