package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/reports"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/stats"
)

var (
	exportOutput string
	exportFormat string
	reportFormat string
	exportSearch string
	salesFrom    string
	salesTo      string
)

var exportCustomersCmd = &cobra.Command{
	Use:   "export-customers",
	Short: "Export customers, optionally only those matching --search, to a CSV or JSON file",
	Args:  cobra.NoArgs,
	RunE:  runExportCustomers,
}

var customerReportCmd = &cobra.Command{
	Use:   "customer-report",
	Short: "Write customer statistics, analytics and source breakdown",
	Args:  cobra.NoArgs,
	RunE:  runCustomerReport,
}

var exportProductsCmd = &cobra.Command{
	Use:   "export-products",
	Short: "Export every product to a CSV file",
	Args:  cobra.NoArgs,
	RunE:  runExportProducts,
}

var salesReportCmd = &cobra.Command{
	Use:   "sales-report",
	Short: "Write daily sales totals for a date range as JSON",
	Long: `Sums the price of every ordered product per day.

Dates are YYYY-MM-DD and both ends are inclusive. Without --from and --to
the report covers the last 30 days.`,
	Args: cobra.NoArgs,
	RunE: runSalesReport,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Write customer signup trends and weekday/monthly sales patterns as JSON",
	Long: `Reports daily signups with their average and peak day, and sales totals
per weekday and per month with the peak sales day.

Takes the same --from and --to as sales-report.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	exportCustomersCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default customers_export_<timestamp>.<format>)")
	exportCustomersCmd.Flags().StringVarP(&exportFormat, "format", "f", reports.FormatCSV, "csv or json")
	exportCustomersCmd.Flags().StringVarP(&exportSearch, "search", "s", "", "only customers whose name, email or phone contains this text")

	customerReportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default customer_report_<timestamp>.<ext>)")
	customerReportCmd.Flags().StringVarP(&reportFormat, "format", "f", reports.FormatJSON, "json or text")

	exportProductsCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default products_export_<timestamp>.csv)")

	salesReportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default sales_report_<timestamp>.json)")
	salesReportCmd.Flags().StringVar(&salesFrom, "from", "", "first day, YYYY-MM-DD")
	salesReportCmd.Flags().StringVar(&salesTo, "to", "", "last day, YYYY-MM-DD")

	analyzeCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default analysis_report_<timestamp>.json)")
	analyzeCmd.Flags().StringVar(&salesFrom, "from", "", "first day, YYYY-MM-DD")
	analyzeCmd.Flags().StringVar(&salesTo, "to", "", "last day, YYYY-MM-DD")
}

// outputPath falls back to a timestamped name inside the reports directory.
func outputPath(prefix, ext string) string {
	if exportOutput != "" {
		return exportOutput
	}
	return filepath.Join(cfg.Reports.Dir, reports.DefaultFilename(prefix, ext, time.Now()))
}

func runExportCustomers(cmd *cobra.Command, args []string) error {
	if exportFormat != reports.FormatCSV && exportFormat != reports.FormatJSON {
		return fmt.Errorf("unsupported export format %q", exportFormat)
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	repo := repository.NewCustomerRepository(db)
	var customers []models.Customer
	if q := strings.TrimSpace(exportSearch); q != "" {
		customers, err = repo.Search(cmd.Context(), q)
	} else {
		customers, err = repo.List(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	path := outputPath("customers_export", exportFormat)
	if err := reports.WriteFile(path, func(w io.Writer) error {
		return reports.WriteCustomers(w, exportFormat, customers)
	}); err != nil {
		return err
	}
	logger.Info("customers exported", zap.String("path", path), zap.Int("count", len(customers)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d customers to %s\n", len(customers), path)
	return nil
}

func runCustomerReport(cmd *cobra.Command, args []string) error {
	ext := "json"
	switch reportFormat {
	case reports.FormatJSON:
	case reports.FormatText:
		ext = "txt"
	default:
		return fmt.Errorf("unsupported report format %q", reportFormat)
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	report, err := reports.BuildCustomerReport(cmd.Context(), stats.New(db))
	if err != nil {
		return err
	}
	path := outputPath("customer_report", ext)
	if err := reports.WriteFile(path, func(w io.Writer) error {
		return report.Write(w, reportFormat)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Customer report written to %s\n", path)
	return nil
}

func runExportProducts(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	data, err := stats.New(db).ExportProducts(cmd.Context(), stats.FormatCSV)
	if err != nil {
		return fmt.Errorf("export products: %w", err)
	}
	path := outputPath("products_export", "csv")
	if err := reports.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, data)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Products exported to %s\n", path)
	return nil
}

func parseDay(flag, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}

// dateRange parses --from and --to. The end of the range is the last instant
// of the --to day.
func dateRange() (start, end time.Time, err error) {
	if start, err = parseDay("from", salesFrom); err != nil {
		return
	}
	if end, err = parseDay("to", salesTo); err != nil {
		return
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err = fmt.Errorf("--to is before --from")
	}
	return
}

func runSalesReport(cmd *cobra.Command, args []string) error {
	start, end, err := dateRange()
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	report, err := stats.New(db).Sales(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("sales report: %w", err)
	}
	path := outputPath("sales_report", "json")
	if err := reports.WriteFile(path, func(w io.Writer) error {
		return reports.WriteJSON(w, report)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sales %s to %s: %d orders, %.2f total. Written to %s\n",
		report.Period.Start, report.Period.End, report.TotalOrders, report.TotalSales, path)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start, end, err := dateRange()
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	report, err := reports.BuildAnalysisReport(cmd.Context(), stats.New(db), start, end)
	if err != nil {
		return err
	}
	path := outputPath("analysis_report", "json")
	if err := reports.WriteFile(path, func(w io.Writer) error {
		return reports.WriteJSON(w, report)
	}); err != nil {
		return err
	}
	tr, sp := report.CustomerTrends, report.SalesPatterns
	fmt.Fprintf(cmd.OutOrStdout(), "%d signups (%.2f a day), %.2f in sales (%.2f a day). Written to %s\n",
		tr.TotalCustomers, tr.DailySignupsAvg, sp.TotalRevenue, sp.AvgDailySales, path)
	return nil
}
