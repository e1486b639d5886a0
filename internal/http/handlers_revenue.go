package http

import (
	"bytes"
	"net/http"
	"time"

	"freelance/internal/core"
	"freelance/internal/log"
	"freelance/internal/report"
)

// revenueView wraps report.View with the month navigation links.
type revenueView struct {
	report.View
	MonthNum  int
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
	Error     string
}

func (s *Server) revenueView(r *http.Request, year int, month time.Month) revenueView {
	py, pm := core.PrevMonth(year, month)
	ny, nm := core.NextMonth(year, month)
	v := revenueView{MonthNum: int(month), PrevYear: py, PrevMonth: int(pm), NextYear: ny, NextMonth: int(nm)}

	acct := accountID(r)
	view, err := s.revenue.View(r.Context(), acct, year, month)
	if err != nil {
		s.events.LogError(r.Context(), "Revenue load failed", err, log.ComponentRevenue, log.OpRead,
			log.NewFields().WithAccount(acct).WithMonth(year, int(month)))
		v.Error = "Impossibile calcolare il fatturato del mese."
		view = report.View{Year: year, Month: month, Empty: true}
	}
	v.View = view
	return v
}

func (s *Server) handleRevenuePage(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	s.render(w, r, NewHTMXResponse(), "revenue.html", s.newPage(r, "Fatturato", "revenue", s.revenueView(r, year, month)))
}

func (s *Server) handleRevenuePartial(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	s.render(w, r, NewHTMXResponse(), "revenue_body", s.revenueView(r, year, month))
}

// handleExportPDF streams the month's single-page PDF report. An empty month is
// refused with 422 and nothing is generated.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	acct := accountID(r)

	snapshot, err := s.revenue.Snapshot(r.Context(), acct, year, month)
	if err != nil {
		s.metrics.Export(err)
		s.errorResponse(r, err, log.ComponentReport, log.OpExport, "Si è verificato un errore durante la creazione del PDF.").Write(w)
		return
	}

	var buf bytes.Buffer
	err = report.ExportPDF(&buf, snapshot)
	s.metrics.Export(err)
	if err != nil {
		s.events.LogError(r.Context(), "PDF export failed", err, log.ComponentReport, log.OpExport,
			log.NewFields().WithAccount(acct).WithMonth(year, int(month)))
		InternalServerError("Si è verificato un errore durante la creazione del PDF.").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Report exported",
		log.FieldAccountID, acct, log.FieldYear, year, log.FieldMonth, int(month), "bytes", buf.Len())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename(year, month)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
