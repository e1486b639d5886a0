package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"freelance/internal/core"
)

// Palette cycles over the breakdown rows in order.
var Palette = []string{"#4f46e5", "#7c3aed", "#10b981", "#f59e0b", "#ef4444", "#3b82f6"}

// Pie chart geometry in SVG user units.
const (
	PieSize   = 220.0
	pieRadius = 100.0
)

type Row struct {
	ClientName string
	Days       int
	Gross      string
	Net        string
	Color      string
}

// Slice is one wedge of the gross revenue pie.
type Slice struct {
	Name    string
	Share   float64
	Percent string
	Color   string
	Path    string
}

// View is the interactive revenue page for a month.
type View struct {
	Year       int
	Month      time.Month
	Title      string
	Rows       []Row
	Slices     []Slice
	TotalDays  int
	TotalGross string
	TotalNet   string
	Orphans    int
	Empty      bool
}

func NewView(b core.MonthlyBreakdown, year int, month time.Month) View {
	v := View{
		Year:       year,
		Month:      month,
		Title:      monthLabel(year, month),
		Rows:       make([]Row, 0, len(b.Rows)),
		TotalDays:  b.TotalDays,
		TotalGross: FormatEuro(b.TotalGross),
		TotalNet:   FormatEuro(b.TotalNet),
		Orphans:    b.Orphans,
		Empty:      b.IsEmpty(),
	}
	for i, r := range b.Rows {
		v.Rows = append(v.Rows, Row{
			ClientName: r.ClientName,
			Days:       r.Days,
			Gross:      FormatEuro(r.GrossRevenue),
			Net:        FormatEuro(r.NetRevenue),
			Color:      Palette[i%len(Palette)],
		})
	}
	v.Slices = PieSlices(b.Rows)
	return v
}

// HasChart is false when no row has revenue to share out.
func (v View) HasChart() bool {
	return len(v.Slices) > 0
}

// PieSlices splits the circle by gross revenue share, clockwise from 12 o'clock.
func PieSlices(rows []core.BreakdownRow) []Slice {
	var total float64
	for _, r := range rows {
		total += r.GrossRevenue
	}
	if total <= 0 {
		return nil
	}

	slices := make([]Slice, 0, len(rows))
	start := 0.0
	for i, r := range rows {
		share := r.GrossRevenue / total
		slices = append(slices, Slice{
			Name:    r.ClientName,
			Share:   share,
			Percent: FormatPercent(share),
			Color:   Palette[i%len(Palette)],
			Path:    arcPath(start, start+share),
		})
		start += share
	}
	return slices
}

// arcPath draws the wedge between two fractions of a full turn.
func arcPath(from, to float64) string {
	c := PieSize / 2
	r := pieRadius
	if to-from >= 0.9999 {
		return fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s Z",
			num(c-r), num(c), num(r), num(r), num(c+r), num(c), num(r), num(r), num(c-r), num(c))
	}
	x1, y1 := point(c, r, from)
	x2, y2 := point(c, r, to)
	large := 0
	if to-from > 0.5 {
		large = 1
	}
	return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		num(c), num(c), num(x1), num(y1), num(r), num(r), large, num(x2), num(y2))
}

func point(c, r, turn float64) (float64, float64) {
	a := turn*2*math.Pi - math.Pi/2
	return c + r*math.Cos(a), c + r*math.Sin(a)
}

func num(f float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", core.MonthName(month), year)
}
