// Package stats computes the counters, analytics and exports shown on the
// dashboards, the JSON API and the offline reports.
package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/crm/models"
)

// RecentWindow is how far back "recent" customers and users reach.
const RecentWindow = 30 * 24 * time.Hour

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *Service) count(ctx context.Context, model interface{}, where ...interface{}) (int64, error) {
	var n int64
	q := s.DB.WithContext(ctx).Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	err := q.Count(&n).Error
	return n, err
}

type CustomerStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Recent   int64 `json:"recent"`
}

// Customers returns the customer counters. Inactive is derived so that
// Total == Active + Inactive always holds.
func (s *Service) Customers(ctx context.Context) (CustomerStats, error) {
	var st CustomerStats
	var err error
	if st.Total, err = s.count(ctx, &models.Customer{}); err != nil {
		return st, err
	}
	if st.Active, err = s.count(ctx, &models.Customer{}, "is_active = ?", true); err != nil {
		return st, err
	}
	if st.Recent, err = s.count(ctx, &models.Customer{}, "created_at >= ?", s.now().Add(-RecentWindow)); err != nil {
		return st, err
	}
	st.Inactive = st.Total - st.Active
	return st, nil
}

// RecentCustomers counts customers created within the last d.
func (s *Service) RecentCustomers(ctx context.Context, d time.Duration) (int64, error) {
	return s.count(ctx, &models.Customer{}, "created_at >= ?", s.now().Add(-d))
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type CustomerAnalytics struct {
	MonthlyGrowth      int64         `json:"monthly_growth"`
	SourceDistribution []SourceCount `json:"source_distribution"`
}

func (s *Service) CustomerAnalyticsFor(ctx context.Context) (CustomerAnalytics, error) {
	var a CustomerAnalytics
	var err error
	if a.MonthlyGrowth, err = s.count(ctx, &models.Customer{}, "created_at >= ?", monthStart(s.now())); err != nil {
		return a, err
	}
	a.SourceDistribution, err = s.CustomersBySource(ctx)
	return a, err
}

// CustomersBySource groups customers by acquisition source, largest group first.
func (s *Service) CustomersBySource(ctx context.Context) ([]SourceCount, error) {
	var rows []struct {
		Source string
		Cnt    int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Customer{}).
		Select("source, COUNT(id) AS cnt").
		Group("source").
		Order("cnt DESC, source").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SourceCount, len(rows))
	for i, r := range rows {
		out[i] = SourceCount{Source: r.Source, Count: r.Cnt}
	}
	return out, nil
}

type OrderStatusCounts struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	OutForDelivery int64 `json:"out_for_delivery"`
	Delivered      int64 `json:"delivered"`
}

// OrderStatuses counts orders per status, for one customer when customerID is set.
func (s *Service) OrderStatuses(ctx context.Context, customerID uint) (OrderStatusCounts, error) {
	var rows []struct {
		Status models.OrderStatus
		Cnt    int64
	}
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if customerID != 0 {
		q = q.Where("customer_id = ?", customerID)
	}
	if err := q.Select("status, COUNT(id) AS cnt").Group("status").Scan(&rows).Error; err != nil {
		return OrderStatusCounts{}, err
	}
	var c OrderStatusCounts
	for _, r := range rows {
		c.Total += r.Cnt
		switch r.Status {
		case models.StatusPending:
			c.Pending += r.Cnt
		case models.StatusOutForDelivery, models.LegacyStatusInTransit:
			c.OutForDelivery += r.Cnt
		case models.StatusDelivered:
			c.Delivered += r.Cnt
		}
	}
	return c, nil
}

type Dashboard struct {
	TotalCustomers int64 `json:"total_customers"`
	OrderStatusCounts
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.TotalCustomers, err = s.count(ctx, &models.Customer{}); err != nil {
		return d, err
	}
	d.OrderStatusCounts, err = s.OrderStatuses(ctx, 0)
	return d, err
}

type UserStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Recent   int64 `json:"recent"`
}

func (s *Service) Users(ctx context.Context) (UserStats, error) {
	var st UserStats
	var err error
	if st.Total, err = s.count(ctx, &models.User{}); err != nil {
		return st, err
	}
	if st.Active, err = s.count(ctx, &models.User{}, "is_active = ?", true); err != nil {
		return st, err
	}
	if st.Recent, err = s.count(ctx, &models.User{}, "created_at >= ?", s.now().Add(-RecentWindow)); err != nil {
		return st, err
	}
	st.Inactive = st.Total - st.Active
	return st, nil
}

type UserAnalytics struct {
	MonthlyGrowth int64 `json:"monthly_growth"`
	ActiveUsers   int64 `json:"active_users"`
	InactiveUsers int64 `json:"inactive_users"`
	TotalUsers    int64 `json:"total_users"`
}

func (s *Service) UserAnalyticsFor(ctx context.Context) (UserAnalytics, error) {
	var a UserAnalytics
	var err error
	if a.MonthlyGrowth, err = s.count(ctx, &models.User{}, "created_at >= ?", monthStart(s.now())); err != nil {
		return a, err
	}
	if a.ActiveUsers, err = s.count(ctx, &models.User{}, "is_active = ?", true); err != nil {
		return a, err
	}
	if a.InactiveUsers, err = s.count(ctx, &models.User{}, "is_active = ?", false); err != nil {
		return a, err
	}
	a.TotalUsers = a.ActiveUsers + a.InactiveUsers
	return a, nil
}
