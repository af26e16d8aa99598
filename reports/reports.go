// Package reports writes the offline export and report files produced by crmctl.
package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/stats"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// DefaultFilename builds names like customers_export_20240131_154500.csv.
func DefaultFilename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}

// WriteFile creates path and hands it to write, removing the file again if
// write fails.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var CustomerExportHeader = []string{"Name", "Email", "Phone", "Source", "Created At", "Is Active"}

const timestampLayout = "2006-01-02 15:04:05"

func WriteCustomersCSV(w io.Writer, customers []models.Customer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CustomerExportHeader); err != nil {
		return err
	}
	for _, c := range customers {
		err := cw.Write([]string{
			c.Name,
			c.EmailAddress(),
			c.Phone,
			c.Source,
			c.CreatedAt.UTC().Format(timestampLayout),
			strconv.FormatBool(c.IsActive),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type customerRecord struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
	IsActive  bool   `json:"is_active"`
}

func WriteCustomersJSON(w io.Writer, customers []models.Customer) error {
	records := make([]customerRecord, len(customers))
	for i, c := range customers {
		records[i] = customerRecord{
			Name:      c.Name,
			Email:     c.EmailAddress(),
			Phone:     c.Phone,
			Source:    c.Source,
			CreatedAt: c.CreatedAt.UTC().Format(timestampLayout),
			IsActive:  c.IsActive,
		}
	}
	return WriteJSON(w, records)
}

// WriteCustomers dispatches on format ("csv" or "json").
func WriteCustomers(w io.Writer, format string, customers []models.Customer) error {
	switch format {
	case FormatCSV:
		return WriteCustomersCSV(w, customers)
	case FormatJSON:
		return WriteCustomersJSON(w, customers)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

type Summary struct {
	TotalCustomers    int64 `json:"total_customers"`
	ActiveCustomers   int64 `json:"active_customers"`
	InactiveCustomers int64 `json:"inactive_customers"`
	RecentCustomers   int64 `json:"recent_customers"`
	MonthlyGrowth     int64 `json:"monthly_growth"`
}

type CustomerReport struct {
	GeneratedAt          time.Time               `json:"generated_at"`
	Statistics           stats.CustomerStats     `json:"statistics"`
	Analytics            stats.CustomerAnalytics `json:"analytics"`
	CustomersBySource    []stats.SourceCount     `json:"customers_by_source"`
	RecentCustomers7Days int64                   `json:"recent_customers_7_days"`
	Summary              Summary                 `json:"summary"`
}

func BuildCustomerReport(ctx context.Context, svc *stats.Service) (*CustomerReport, error) {
	st, err := svc.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer statistics: %w", err)
	}
	an, err := svc.CustomerAnalyticsFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer analytics: %w", err)
	}
	week, err := svc.RecentCustomers(ctx, 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("recent customers: %w", err)
	}
	return &CustomerReport{
		GeneratedAt:          svc.Now().UTC(),
		Statistics:           st,
		Analytics:            an,
		CustomersBySource:    an.SourceDistribution,
		RecentCustomers7Days: week,
		Summary: Summary{
			TotalCustomers:    st.Total,
			ActiveCustomers:   st.Active,
			InactiveCustomers: st.Inactive,
			RecentCustomers:   st.Recent,
			MonthlyGrowth:     an.MonthlyGrowth,
		},
	}, nil
}

func (r *CustomerReport) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("CUSTOMER REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Total Customers: %d\n", r.Statistics.Total)
	fmt.Fprintf(&b, "Active Customers: %d\n", r.Statistics.Active)
	fmt.Fprintf(&b, "Inactive Customers: %d\n", r.Statistics.Inactive)
	fmt.Fprintf(&b, "Recent Customers (30 days): %d\n", r.Statistics.Recent)
	fmt.Fprintf(&b, "Monthly Growth: %d\n\n", r.Analytics.MonthlyGrowth)
	b.WriteString("CUSTOMERS BY SOURCE:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	for _, s := range r.CustomersBySource {
		fmt.Fprintf(&b, "%s: %d\n", s.Source, s.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Write renders the report as "json" or "text".
func (r *CustomerReport) Write(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatText:
		return r.WriteText(w)
	}
	return fmt.Errorf("unsupported report format %q", format)
}

// UserSearcher finds accounts for the optional search section of a user report.
type UserSearcher interface {
	Search(ctx context.Context, query string) ([]models.User, error)
}

type UserReport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Statistics  stats.UserStats     `json:"statistics"`
	Analytics   stats.UserAnalytics `json:"analytics"`
	Query       string              `json:"query,omitempty"`
	Matches     []models.User       `json:"matches,omitempty"`
}

// BuildUserReport lists the accounts matching query when it is not blank.
func BuildUserReport(ctx context.Context, svc *stats.Service, users UserSearcher, query string) (*UserReport, error) {
	st, err := svc.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("user statistics: %w", err)
	}
	an, err := svc.UserAnalyticsFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("user analytics: %w", err)
	}
	r := &UserReport{GeneratedAt: svc.Now().UTC(), Statistics: st, Analytics: an}
	if query = strings.TrimSpace(query); query != "" {
		r.Query = query
		if r.Matches, err = users.Search(ctx, query); err != nil {
			return nil, fmt.Errorf("search users: %w", err)
		}
	}
	return r, nil
}

type AnalysisReport struct {
	GeneratedAt    time.Time            `json:"generated_at"`
	CustomerTrends stats.CustomerTrends `json:"customer_trends"`
	SalesPatterns  stats.SalesPatterns  `json:"sales_patterns"`
}

func BuildAnalysisReport(ctx context.Context, svc *stats.Service, start, end time.Time) (*AnalysisReport, error) {
	trends, err := svc.CustomerTrends(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("customer trends: %w", err)
	}
	patterns, err := svc.SalesPatterns(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("sales patterns: %w", err)
	}
	return &AnalysisReport{GeneratedAt: svc.Now().UTC(), CustomerTrends: trends, SalesPatterns: patterns}, nil
}
