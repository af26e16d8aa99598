package stats

import (
	"context"
	"sort"
	"time"

	"github.com/judyrop/crm/models"
)

// ProductStats.TotalRevenue sums the prices of ordered products, since an
// order has no amount of its own.
type ProductStats struct {
	TotalProducts int64   `json:"total_products"`
	TotalOrders   int64   `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type revenueRow struct {
	Orders  int64
	Revenue float64
}

func (s *Service) revenue(ctx context.Context, from time.Time) (revenueRow, error) {
	var r revenueRow
	q := s.DB.WithContext(ctx).Table("orders").
		Joins("JOIN products ON products.id = orders.product_id").
		Select("COUNT(orders.id) AS orders, COALESCE(SUM(products.price), 0) AS revenue")
	if !from.IsZero() {
		q = q.Where("orders.created_at >= ?", from)
	}
	err := q.Scan(&r).Error
	return r, err
}

func (s *Service) Products(ctx context.Context) (ProductStats, error) {
	var st ProductStats
	var err error
	if st.TotalProducts, err = s.count(ctx, &models.Product{}); err != nil {
		return st, err
	}
	if st.TotalOrders, err = s.count(ctx, &models.Order{}); err != nil {
		return st, err
	}
	r, err := s.revenue(ctx, time.Time{})
	if err != nil {
		return st, err
	}
	st.TotalRevenue = r.Revenue
	if r.Orders > 0 {
		st.AvgOrderValue = r.Revenue / float64(r.Orders)
	}
	return st, nil
}

type TopProduct struct {
	Name       string `json:"name"`
	OrderCount int64  `json:"order_count"`
}

type ProductAnalytics struct {
	TopProducts    []TopProduct `json:"top_products"`
	MonthlyOrders  int64        `json:"monthly_orders"`
	MonthlyRevenue float64      `json:"monthly_revenue"`
}

func (s *Service) ProductAnalyticsFor(ctx context.Context) (ProductAnalytics, error) {
	var a ProductAnalytics
	err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Select("products.name AS name, COUNT(orders.id) AS order_count").
		Joins("LEFT JOIN orders ON orders.product_id = products.id").
		Group("products.id, products.name").
		Order("order_count DESC, products.id").
		Limit(5).
		Scan(&a.TopProducts).Error
	if err != nil {
		return a, err
	}
	if a.TopProducts == nil {
		a.TopProducts = []TopProduct{}
	}
	from := monthStart(s.now())
	if a.MonthlyOrders, err = s.count(ctx, &models.Order{}, "created_at >= ?", from); err != nil {
		return a, err
	}
	r, err := s.revenue(ctx, from)
	if err != nil {
		return a, err
	}
	a.MonthlyRevenue = r.Revenue
	return a, nil
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DailySales struct {
	Day        string  `json:"day"`
	DailyTotal float64 `json:"daily_total"`
	OrderCount int64   `json:"order_count"`
}

type SalesReport struct {
	Period        Period       `json:"period"`
	TotalSales    float64      `json:"total_sales"`
	TotalOrders   int64        `json:"total_orders"`
	AvgOrderValue float64      `json:"avg_order_value"`
	DailySales    []DailySales `json:"daily_sales"`
}

const dayLayout = "2006-01-02"

// Sales reports orders created in [start, end]. Zero bounds default to the
// last 30 days. Orders whose product is gone count with a zero amount.
func (s *Service) Sales(ctx context.Context, start, end time.Time) (SalesReport, error) {
	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() {
		start = end.Add(-RecentWindow)
	}
	start, end = start.UTC(), end.UTC()

	var rows []struct {
		CreatedAt time.Time
		Price     float64
	}
	err := s.DB.WithContext(ctx).Table("orders").
		Select("orders.created_at AS created_at, COALESCE(products.price, 0) AS price").
		Joins("LEFT JOIN products ON products.id = orders.product_id").
		Where("orders.created_at >= ? AND orders.created_at <= ?", start, end).
		Scan(&rows).Error
	if err != nil {
		return SalesReport{}, err
	}

	report := SalesReport{
		Period:     Period{Start: start.Format(dayLayout), End: end.Format(dayLayout)},
		DailySales: []DailySales{},
	}
	byDay := map[string]*DailySales{}
	for _, r := range rows {
		day := r.CreatedAt.UTC().Format(dayLayout)
		d, ok := byDay[day]
		if !ok {
			d = &DailySales{Day: day}
			byDay[day] = d
		}
		d.DailyTotal += r.Price
		d.OrderCount++
		report.TotalSales += r.Price
		report.TotalOrders++
	}
	for _, d := range byDay {
		report.DailySales = append(report.DailySales, *d)
	}
	sort.Slice(report.DailySales, func(i, j int) bool {
		return report.DailySales[i].Day < report.DailySales[j].Day
	})
	if report.TotalOrders > 0 {
		report.AvgOrderValue = report.TotalSales / float64(report.TotalOrders)
	}
	return report, nil
}
