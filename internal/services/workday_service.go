package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"freelance/internal/cache"
	"freelance/internal/core"
	"freelance/internal/store"
)

// RemoveSelection is the form value that clears a day's assignment.
const RemoveSelection = "remove"

// Outcome tells what Apply did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAssigned
	OutcomeUnassigned
)

// MonthCache holds the work days of a month, keyed by MonthKey.
type MonthCache = cache.Cache[[]core.WorkDay]

// WorkDayService assigns clients to calendar dates.
type WorkDayService struct {
	clients  store.ClientStore
	workDays store.WorkDayStore
	months   MonthCache
	events   EventPublisher
	metrics  Recorder
	guard    *inflight
}

func NewWorkDayService(clients store.ClientStore, workDays store.WorkDayStore, months MonthCache, events EventPublisher, metrics Recorder) *WorkDayService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &WorkDayService{
		clients:  clients,
		workDays: workDays,
		months:   months,
		events:   events,
		metrics:  metrics,
		guard:    newInflight(),
	}
}

// MonthKey is the cache key of an account's month.
func MonthKey(accountID string, year int, month time.Month) string {
	return fmt.Sprintf("%s:%04d-%02d", accountID, year, int(month))
}

// AccountPrefix matches every cached month of the account.
func AccountPrefix(accountID string) string {
	return accountID + ":"
}

// Assign makes clientID the client worked for on date, replacing any previous one.
func (s *WorkDayService) Assign(ctx context.Context, accountID string, date core.Date, clientID string) (wd core.WorkDay, err error) {
	if accountID == "" {
		return core.WorkDay{}, core.ErrMissingAccount
	}
	if err := date.Validate(); err != nil {
		return core.WorkDay{}, err
	}
	if clientID == "" {
		return core.WorkDay{}, core.ErrClientNotFound
	}

	release, err := s.guard.acquire(accountID + "/" + date.String())
	if err != nil {
		return core.WorkDay{}, err
	}
	defer release()
	defer func() { s.metrics.Mutation("workday", "assign", err) }()

	client, err := s.clients.GetClient(ctx, accountID, clientID)
	if err != nil {
		return core.WorkDay{}, fmt.Errorf("resolve client: %w", err)
	}

	existing, err := s.workDays.GetWorkDay(ctx, accountID, date)
	switch {
	case err == nil:
		if existing.ClientID != clientID {
			if err := s.workDays.UpdateWorkDayClient(ctx, accountID, existing.ID, clientID); err != nil {
				return core.WorkDay{}, fmt.Errorf("update work day: %w", err)
			}
		}
		wd = existing
		wd.ClientID = clientID
		wd.Client = &client
	case errors.Is(err, core.ErrWorkDayNotFound):
		wd, err = s.workDays.CreateWorkDay(ctx, core.WorkDay{AccountID: accountID, Date: date, ClientID: clientID})
		if err != nil {
			return core.WorkDay{}, fmt.Errorf("create work day: %w", err)
		}
	default:
		return core.WorkDay{}, fmt.Errorf("read work day: %w", err)
	}

	s.invalidate(accountID, date)
	s.publish(ctx, accountID, date, clientID)
	return wd, nil
}

// Unassign removes the date's work day. A date without one is left as is.
func (s *WorkDayService) Unassign(ctx context.Context, accountID string, date core.Date) (err error) {
	if accountID == "" {
		return core.ErrMissingAccount
	}
	if err := date.Validate(); err != nil {
		return err
	}

	release, err := s.guard.acquire(accountID + "/" + date.String())
	if err != nil {
		return err
	}
	defer release()
	defer func() { s.metrics.Mutation("workday", "unassign", err) }()

	existing, err := s.workDays.GetWorkDay(ctx, accountID, date)
	if errors.Is(err, core.ErrWorkDayNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read work day: %w", err)
	}

	if err := s.workDays.DeleteWorkDay(ctx, accountID, existing.ID); err != nil {
		if errors.Is(err, core.ErrWorkDayNotFound) {
			return nil
		}
		return fmt.Errorf("delete work day: %w", err)
	}

	s.invalidate(accountID, date)
	s.publish(ctx, accountID, date, "")
	return nil
}

// Apply runs the action picked in the day dialog: "" does nothing,
// RemoveSelection unassigns and any other value is a client id to assign.
func (s *WorkDayService) Apply(ctx context.Context, accountID string, date core.Date, selection string) (Outcome, error) {
	switch selection {
	case "":
		return OutcomeNone, nil
	case RemoveSelection:
		if err := s.Unassign(ctx, accountID, date); err != nil {
			return OutcomeNone, err
		}
		return OutcomeUnassigned, nil
	default:
		if _, err := s.Assign(ctx, accountID, date, selection); err != nil {
			return OutcomeNone, err
		}
		return OutcomeAssigned, nil
	}
}

// Month returns the month's work days with their clients joined; Client is nil
// for days whose client was deleted.
func (s *WorkDayService) Month(ctx context.Context, accountID string, year int, month time.Month) ([]core.WorkDay, error) {
	if accountID == "" {
		return nil, core.ErrMissingAccount
	}
	if !core.ValidMonth(int(month)) {
		return nil, core.ErrInvalidMonth
	}

	key := MonthKey(accountID, year, month)
	if s.months != nil {
		if days, ok := s.months.Get(key); ok {
			s.metrics.CacheHit()
			return slices.Clone(days), nil
		}
		s.metrics.CacheMiss()
	}

	first, last := core.MonthRange(year, month)
	days, err := s.workDays.ListWorkDays(ctx, accountID, first, last)
	if err != nil {
		return nil, fmt.Errorf("list work days: %w", err)
	}

	if s.months != nil {
		s.months.Set(key, slices.Clone(days))
	}
	return days, nil
}

func (s *WorkDayService) invalidate(accountID string, date core.Date) {
	if s.months == nil {
		return
	}
	s.months.Delete(MonthKey(accountID, date.Year(), time.Month(date.Month())))
}

func (s *WorkDayService) publish(ctx context.Context, accountID string, date core.Date, clientID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishWorkDay(ctx, accountID, date.String(), clientID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish work day event",
			"date", date.String(), "error", err)
		// The change is stored; the event is best effort.
	}
}
