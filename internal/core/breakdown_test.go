package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workDay(date Date, c *Client) WorkDay {
	wd := WorkDay{Date: date, Client: c}
	if c != nil {
		wd.ClientID = c.ID
	}
	return wd
}

func TestAggregateReferenceMonth(t *testing.T) {
	a := &Client{ID: "a", Name: "A", GrossDailyRate: 300}
	b := &Client{ID: "b", Name: "B", GrossDailyRate: 200}
	days := []WorkDay{
		workDay(NewDate(2024, 3, 1), a),
		workDay(NewDate(2024, 3, 2), a),
		workDay(NewDate(2024, 3, 3), b),
	}

	got := Aggregate(days)

	want := []BreakdownRow{
		{ClientName: "A", Days: 2, GrossRevenue: 600, NetRevenue: 390},
		{ClientName: "B", Days: 1, GrossRevenue: 200, NetRevenue: 130},
	}
	assert.Equal(t, want, got.Rows)
	assert.Equal(t, 3, got.TotalDays)
	assert.Equal(t, 800.0, got.TotalGross)
	assert.Equal(t, 520.0, got.TotalNet)
	assert.False(t, got.IsEmpty())
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	require.NotNil(t, got.Rows)
	assert.Empty(t, got.Rows)
	assert.Zero(t, got.TotalDays)
	assert.Zero(t, got.TotalGross)
	assert.Zero(t, got.TotalNet)
	assert.True(t, got.IsEmpty())
}

func TestAggregateSortsByGrossStable(t *testing.T) {
	small := &Client{ID: "s", Name: "Small", GrossDailyRate: 100}
	first := &Client{ID: "f", Name: "First", GrossDailyRate: 250}
	second := &Client{ID: "x", Name: "Second", GrossDailyRate: 500}
	days := []WorkDay{
		workDay(NewDate(2024, 3, 1), small),
		workDay(NewDate(2024, 3, 2), first),
		workDay(NewDate(2024, 3, 3), first),
		workDay(NewDate(2024, 3, 4), second),
	}

	got := Aggregate(days)

	require.Len(t, got.Rows, 3)
	// First and Second tie at 500: first-seen order wins.
	assert.Equal(t, "First", got.Rows[0].ClientName)
	assert.Equal(t, "Second", got.Rows[1].ClientName)
	assert.Equal(t, "Small", got.Rows[2].ClientName)
}

func TestAggregateCollapsesSameName(t *testing.T) {
	one := &Client{ID: "1", Name: "Studio", GrossDailyRate: 100}
	two := &Client{ID: "2", Name: "Studio", GrossDailyRate: 200}
	got := Aggregate([]WorkDay{
		workDay(NewDate(2024, 3, 1), one),
		workDay(NewDate(2024, 3, 2), two),
	})
	require.Len(t, got.Rows, 1)
	assert.Equal(t, 2, got.Rows[0].Days)
	assert.Equal(t, 300.0, got.Rows[0].GrossRevenue)
}

func TestAggregateNetPaths(t *testing.T) {
	// Values where summing per-day net and deriving net from the gross total
	// disagree in the last bits.
	c := &Client{ID: "c", Name: "C", GrossDailyRate: 0.1}
	var days []WorkDay
	for d := 1; d <= 3; d++ {
		days = append(days, workDay(NewDate(2024, 3, d), c))
	}
	got := Aggregate(days)

	var perDay, gross float64
	for range days {
		perDay += 0.1 * 0.65
		gross += 0.1
	}
	assert.Equal(t, perDay, got.Rows[0].NetRevenue)
	assert.Equal(t, gross, got.TotalGross)
	assert.Equal(t, gross*0.65, got.TotalNet)
}

func TestAggregateOrphans(t *testing.T) {
	a := &Client{ID: "a", Name: "A", GrossDailyRate: 300}
	got := Aggregate([]WorkDay{
		workDay(NewDate(2024, 3, 1), a),
		{Date: NewDate(2024, 3, 2), ClientID: "deleted"},
	})
	require.Len(t, got.Rows, 1)
	assert.Equal(t, 2, got.TotalDays)
	assert.Equal(t, 1, got.Orphans)
	assert.Equal(t, 300.0, got.TotalGross)
}
