package core

import "sort"

// BreakdownRow aggregates one client's work days for a month.
type BreakdownRow struct {
	ClientName   string
	Days         int
	GrossRevenue float64
	NetRevenue   float64
}

// MonthlyBreakdown is the derived revenue view of a month. It is never persisted.
type MonthlyBreakdown struct {
	Rows       []BreakdownRow
	TotalDays  int
	TotalGross float64
	TotalNet   float64
	// Orphans counts work days whose client could not be resolved.
	Orphans int
}

// Aggregate groups work days by client name and sums their rates.
//
// Rows are keyed by display name, so two clients sharing a name collapse into one
// row. Per-row net is accumulated day by day from the gross rate while the net
// grand total is derived from the gross grand total; both paths are kept as is
// because rounding-sensitive consumers depend on them. Work days without a
// resolvable client are left out of the rows but still count toward TotalDays.
func Aggregate(days []WorkDay) MonthlyBreakdown {
	out := MonthlyBreakdown{Rows: []BreakdownRow{}}

	index := make(map[string]int)
	for _, wd := range days {
		if wd.Client == nil {
			out.Orphans++
			continue
		}
		name := wd.Client.Name
		i, ok := index[name]
		if !ok {
			i = len(out.Rows)
			index[name] = i
			out.Rows = append(out.Rows, BreakdownRow{ClientName: name})
		}
		rate := wd.Client.GrossDailyRate
		out.Rows[i].Days++
		out.Rows[i].GrossRevenue += rate
		out.Rows[i].NetRevenue += rate * NetFactor
	}

	sort.SliceStable(out.Rows, func(a, b int) bool {
		return out.Rows[a].GrossRevenue > out.Rows[b].GrossRevenue
	})

	for _, r := range out.Rows {
		out.TotalGross += r.GrossRevenue
	}
	out.TotalNet = out.TotalGross * NetFactor
	out.TotalDays = len(days)
	return out
}

// IsEmpty reports whether the month has no work days at all.
func (b MonthlyBreakdown) IsEmpty() bool {
	return b.TotalDays == 0
}
