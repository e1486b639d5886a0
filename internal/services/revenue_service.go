package services

import (
	"context"
	"fmt"
	"time"

	"freelance/internal/core"
	"freelance/internal/report"
	"freelance/internal/store"
)

// RevenueService computes monthly revenue. Breakdowns are recomputed on every call.
type RevenueService struct {
	workDays store.WorkDayStore
}

func NewRevenueService(workDays store.WorkDayStore) *RevenueService {
	return &RevenueService{workDays: workDays}
}

func (s *RevenueService) MonthlyBreakdown(ctx context.Context, accountID string, year int, month time.Month) (core.MonthlyBreakdown, error) {
	if accountID == "" {
		return core.MonthlyBreakdown{}, core.ErrMissingAccount
	}
	if !core.ValidMonth(int(month)) {
		return core.MonthlyBreakdown{}, core.ErrInvalidMonth
	}

	first, last := core.MonthRange(year, month)
	days, err := s.workDays.ListWorkDays(ctx, accountID, first, last)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("list work days: %w", err)
	}
	return core.Aggregate(days), nil
}

// View builds the revenue page for the month.
func (s *RevenueService) View(ctx context.Context, accountID string, year int, month time.Month) (report.View, error) {
	b, err := s.MonthlyBreakdown(ctx, accountID, year, month)
	if err != nil {
		return report.View{}, err
	}
	return report.NewView(b, year, month), nil
}

// Snapshot builds the export document; report.ErrNoData when the month is empty.
func (s *RevenueService) Snapshot(ctx context.Context, accountID string, year int, month time.Month) (report.Snapshot, error) {
	b, err := s.MonthlyBreakdown(ctx, accountID, year, month)
	if err != nil {
		return report.Snapshot{}, err
	}
	return report.NewSnapshot(b, year, month)
}
