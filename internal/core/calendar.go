package core

import (
	"strconv"
	"time"
)

// ClientMissingLabel is shown for a work day whose client no longer exists.
const ClientMissingLabel = "Cliente eliminato"

var monthNames = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// WeekdayHeaders are the column labels of a Monday-first week.
var WeekdayHeaders = [7]string{"Lun", "Mar", "Mer", "Gio", "Ven", "Sab", "Dom"}

// Cell is one slot of the calendar grid. Blank cells pad the first and last week.
type Cell struct {
	Blank      bool
	Day        int
	Date       Date
	IsToday    bool
	ClientID   string
	ClientName string
}

// Week holds seven cells, Monday first.
type Week [7]Cell

// Calendar is the display grid of a single month.
type Calendar struct {
	Year  int
	Month time.Month
	Weeks []Week
}

// MonthName returns the Italian name of the month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// DaysInMonth returns 28 to 31 depending on month and leap year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last calendar day of the month.
func MonthRange(year int, month time.Month) (first, last Date) {
	first = NewDate(year, int(month), 1)
	last = NewDate(year, int(month), DaysInMonth(year, month))
	return first, last
}

// ValidMonth reports whether month is in 1..12.
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// PrevMonth returns the year and month before the given one.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// NextMonth returns the year and month after the given one.
func NextMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// leadingBlanks maps Go's Sunday=0 weekday to a Monday-first column index.
func leadingBlanks(year int, month time.Month) int {
	wd := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	return (wd + 6) % 7
}

// BuildCalendar lays out the month as Monday-first weeks.
//
// Each populated cell is labelled with the client of the work day carrying the
// exact same date. Work days outside the month are ignored. today is compared
// by calendar date in its own location.
func BuildCalendar(year int, month time.Month, days []WorkDay, today time.Time) Calendar {
	cal := Calendar{Year: year, Month: month}

	byDate := make(map[string]WorkDay, len(days))
	for _, wd := range days {
		key := wd.Date.String()
		if _, ok := byDate[key]; !ok {
			byDate[key] = wd
		}
	}
	todayKey := DateOf(today).String()

	total := DaysInMonth(year, month)
	blanks := leadingBlanks(year, month)

	var week Week
	col := 0
	for i := 0; i < blanks; i++ {
		week[col] = Cell{Blank: true}
		col++
	}
	for day := 1; day <= total; day++ {
		date := NewDate(year, int(month), day)
		cell := Cell{Day: day, Date: date, IsToday: date.String() == todayKey}
		if wd, ok := byDate[date.String()]; ok {
			cell.ClientID = wd.ClientID
			if wd.Client != nil {
				cell.ClientName = wd.Client.Name
			} else {
				cell.ClientName = ClientMissingLabel
			}
		}
		week[col] = cell
		col++
		if col == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = Week{}
			col = 0
		}
	}
	if col > 0 {
		for ; col < 7; col++ {
			week[col] = Cell{Blank: true}
		}
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal
}

// Title is the month heading, e.g. "Febbraio 2024".
func (c Calendar) Title() string {
	return MonthName(c.Month) + " " + strconv.Itoa(c.Year)
}

// LeadingBlanks counts the placeholder cells before day 1.
func (c Calendar) LeadingBlanks() int {
	n := 0
	for _, w := range c.Weeks {
		for _, cell := range w {
			if !cell.Blank {
				return n
			}
			n++
		}
	}
	return n
}

// PopulatedCells counts the cells carrying a day number.
func (c Calendar) PopulatedCells() int {
	n := 0
	for _, w := range c.Weeks {
		for _, cell := range w {
			if !cell.Blank {
				n++
			}
		}
	}
	return n
}

// Cell returns the populated cell for the given day of the month.
func (c Calendar) Cell(day int) (Cell, bool) {
	for _, w := range c.Weeks {
		for _, cell := range w {
			if !cell.Blank && cell.Day == day {
				return cell, true
			}
		}
	}
	return Cell{}, false
}
