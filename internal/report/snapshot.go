package report

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"freelance/internal/core"
)

// ErrNoData blocks exporting a month without work days.
var ErrNoData = errors.New("no data to export for the selected month")

// NoDataMessage is shown to the user when ErrNoData blocks an export.
const NoDataMessage = "Nessun dato da esportare per il mese selezionato."

// Card is one of the summary boxes above the table.
type Card struct {
	Label string
	Value string
}

// Snapshot is the static single-page document that gets rasterized for export.
type Snapshot struct {
	Title      string
	MonthLabel string
	Cards      [3]Card
	Heading    string
	Columns    [4]string
	Rows       [][4]string
}

func NewSnapshot(b core.MonthlyBreakdown, year int, month time.Month) (Snapshot, error) {
	if b.IsEmpty() {
		return Snapshot{}, ErrNoData
	}
	if !core.ValidMonth(int(month)) {
		return Snapshot{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}

	s := Snapshot{
		Title:      "Report Fatturato",
		MonthLabel: monthLabel(year, month),
		Cards: [3]Card{
			{Label: "Fatturato Lordo", Value: FormatEuro(b.TotalGross)},
			{Label: "Fatturato Netto", Value: FormatEuro(b.TotalNet)},
			{Label: "Giornate Lavorate", Value: strconv.Itoa(b.TotalDays)},
		},
		Heading: "Dettaglio Clienti",
		Columns: [4]string{"Cliente", "Giornate", "Fatturato Lordo", "Fatturato Netto"},
		Rows:    make([][4]string, 0, len(b.Rows)),
	}
	for _, r := range b.Rows {
		s.Rows = append(s.Rows, [4]string{
			r.ClientName,
			strconv.Itoa(r.Days),
			FormatEuro(r.GrossRevenue),
			FormatEuro(r.NetRevenue),
		})
	}
	return s, nil
}

// ExportFilename names the PDF after the month, e.g. "Fatturato_Marzo_2024.pdf".
func ExportFilename(year int, month time.Month) string {
	return fmt.Sprintf("Fatturato_%s_%d.pdf", core.MonthName(month), year)
}
