package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the calendar-date wire format used for storage, URLs and forms.
const DateLayout = "2006-01-02"

const maxClientNameLength = 100

type (
	Date struct {
		time.Time
	}

	// Client is a customer billed at a fixed gross daily rate.
	// The net daily rate is derived, never stored.
	Client struct {
		ID             string
		AccountID      string
		Name           string
		GrossDailyRate float64
		CreatedAt      time.Time
	}

	// WorkDay assigns exactly one client to one calendar date of an account.
	// Client is resolved at read time and is nil when the referenced client
	// has been deleted.
	WorkDay struct {
		ID        string
		AccountID string
		Date      Date
		ClientID  string
		Client    *Client
		CreatedAt time.Time
	}

	Account struct {
		ID                string
		Email             string
		PasswordHash      string
		ConfirmedAt       time.Time
		PasswordChangedAt time.Time
		CreatedAt         time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyClientName  = errors.New("empty client name")
	ErrClientNameLength = errors.New("client name too long (max 100 characters)")
	ErrClientNotFound   = errors.New("client not found")
	ErrWorkDayNotFound  = errors.New("work day not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrMissingAccount   = errors.New("missing account id")
	ErrWorkDayExists    = errors.New("work day already exists for date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// SameDay reports whether both dates name the same calendar day.
func (d Date) SameDay(o Date) bool {
	return d.String() == o.String()
}

// InRange reports whether d lies in the inclusive range [from, to].
func (d Date) InRange(from, to Date) bool {
	s := d.String()
	return s >= from.String() && s <= to.String()
}

// NetDailyRate is the client's gross rate after the fixed deduction.
func (c Client) NetDailyRate() float64 {
	return NetDailyRate(c.GrossDailyRate)
}

func (c Client) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyClientName
	}
	if utf8.RuneCountInString(name) > maxClientNameLength {
		return ErrClientNameLength
	}
	return ValidateRate(c.GrossDailyRate)
}

func (w WorkDay) Validate() error {
	if err := w.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(w.ClientID) == "" {
		return ErrClientNotFound
	}
	return nil
}

// IsConfirmed reports whether the account completed the signup confirmation.
func (a Account) IsConfirmed() bool {
	return !a.ConfirmedAt.IsZero()
}

// CredentialStamp changes every time the password does. Tokens carry the stamp
// they were issued against and stop verifying once it moves on.
func (a Account) CredentialStamp() int64 {
	if a.PasswordChangedAt.IsZero() {
		return 0
	}
	return a.PasswordChangedAt.UnixNano()
}
