package stats

import (
	"context"
	"sort"
	"time"

	"github.com/judyrop/crm/models"
)

type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CustomerTrends summarises signups per calendar day. Days without signups
// are left out of DailySignups but still count towards the average.
type CustomerTrends struct {
	Period          Period       `json:"period"`
	TotalCustomers  int64        `json:"total_customers"`
	DailySignups    []DailyCount `json:"daily_signups"`
	DailySignupsAvg float64      `json:"daily_signups_avg"`
	PeakSignupDay   string       `json:"peak_signup_day,omitempty"`
	PeakSignups     int64        `json:"peak_signups"`
}

// days counts the calendar days in [start, end], at least one.
func days(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	n := int(e.Sub(s).Hours()/24) + 1
	if n < 1 {
		return 1
	}
	return n
}

// window applies the same defaults as Sales: zero bounds cover the last 30 days.
func (s *Service) window(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() {
		start = end.Add(-RecentWindow)
	}
	return start.UTC(), end.UTC()
}

// CustomerTrends reports signups created in [start, end]. Ties for the peak
// day go to the earliest day.
func (s *Service) CustomerTrends(ctx context.Context, start, end time.Time) (CustomerTrends, error) {
	start, end = s.window(start, end)
	var created []time.Time
	err := s.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Pluck("created_at", &created).Error
	if err != nil {
		return CustomerTrends{}, err
	}

	tr := CustomerTrends{
		Period:       Period{Start: start.Format(dayLayout), End: end.Format(dayLayout)},
		DailySignups: []DailyCount{},
	}
	byDay := map[string]int64{}
	for _, t := range created {
		byDay[t.UTC().Format(dayLayout)]++
	}
	for day, n := range byDay {
		tr.DailySignups = append(tr.DailySignups, DailyCount{Day: day, Count: n})
	}
	sort.Slice(tr.DailySignups, func(i, j int) bool { return tr.DailySignups[i].Day < tr.DailySignups[j].Day })
	for _, d := range tr.DailySignups {
		tr.TotalCustomers += d.Count
		if d.Count > tr.PeakSignups {
			tr.PeakSignups = d.Count
			tr.PeakSignupDay = d.Day
		}
	}
	tr.DailySignupsAvg = float64(tr.TotalCustomers) / float64(days(start, end))
	return tr, nil
}

type WeekdaySales struct {
	Weekday string  `json:"weekday"`
	Total   float64 `json:"total"`
}

type MonthSales struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// SalesPatterns breaks the sales of a period down by weekday and by month.
type SalesPatterns struct {
	Period          Period         `json:"period"`
	TotalRevenue    float64        `json:"total_revenue"`
	AvgDailySales   float64        `json:"avg_daily_sales"`
	PeakSalesDay    string         `json:"peak_sales_day,omitempty"`
	PeakSalesAmount float64        `json:"peak_sales_amount"`
	WeeklyPattern   []WeekdaySales `json:"weekly_pattern"`
	MonthlyPattern  []MonthSales   `json:"monthly_pattern"`
}

// SalesPatterns derives weekday and month totals from the daily breakdown of
// Sales. WeeklyPattern always lists Monday to Sunday, MonthlyPattern only the
// months that had sales, oldest first.
func (s *Service) SalesPatterns(ctx context.Context, start, end time.Time) (SalesPatterns, error) {
	start, end = s.window(start, end)
	report, err := s.Sales(ctx, start, end)
	if err != nil {
		return SalesPatterns{}, err
	}

	p := SalesPatterns{
		Period:         report.Period,
		TotalRevenue:   report.TotalSales,
		AvgDailySales:  report.TotalSales / float64(days(start, end)),
		WeeklyPattern:  make([]WeekdaySales, 7),
		MonthlyPattern: []MonthSales{},
	}
	for i := range p.WeeklyPattern {
		p.WeeklyPattern[i].Weekday = time.Weekday((i + 1) % 7).String()
	}
	for _, d := range report.DailySales {
		day, err := time.Parse(dayLayout, d.Day)
		if err != nil {
			return SalesPatterns{}, err
		}
		p.WeeklyPattern[(int(day.Weekday())+6)%7].Total += d.DailyTotal

		month := day.Format("2006-01")
		if n := len(p.MonthlyPattern); n == 0 || p.MonthlyPattern[n-1].Month != month {
			p.MonthlyPattern = append(p.MonthlyPattern, MonthSales{Month: month})
		}
		p.MonthlyPattern[len(p.MonthlyPattern)-1].Total += d.DailyTotal

		if d.DailyTotal > p.PeakSalesAmount {
			p.PeakSalesAmount = d.DailyTotal
			p.PeakSalesDay = d.Day
		}
	}
	return p, nil
}
