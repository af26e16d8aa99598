package stats

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/judyrop/crm/config"
	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/models"
)

func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func addCustomer(t *testing.T, db *gorm.DB, name, email, source string, active bool) *models.Customer {
	t.Helper()
	c := &models.Customer{Name: name, Source: source, IsActive: active}
	c.SetEmail(email)
	require.NoError(t, db.Create(c).Error)
	return c
}

func addOrder(t *testing.T, db *gorm.DB, c *models.Customer, p *models.Product, status models.OrderStatus) {
	t.Helper()
	o := &models.Order{CustomerID: &c.ID, ProductID: &p.ID, Status: status}
	require.NoError(t, db.Omit("Customer", "Product").Create(o).Error)
}

func TestCustomerStatistics(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	addCustomer(t, db, "John Doe", "john@x.com", "website", true)
	addCustomer(t, db, "Jane Smith", "jane@x.com", "website", true)

	st, err := svc.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, CustomerStats{Total: 2, Active: 2, Inactive: 0, Recent: 2}, st)

	addCustomer(t, db, "Old Timer", "", "referral", false)
	require.NoError(t, db.Model(&models.Customer{}).Where("name = ?", "Old Timer").
		UpdateColumn("created_at", time.Now().UTC().AddDate(0, -3, 0)).Error)

	st, err = svc.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.Total, st.Active+st.Inactive)
	assert.Equal(t, int64(1), st.Inactive)
	assert.Equal(t, int64(2), st.Recent)

	a, err := svc.CustomerAnalyticsFor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.MonthlyGrowth)
	assert.Equal(t, []SourceCount{{Source: "website", Count: 2}, {Source: "referral", Count: 1}}, a.SourceDistribution)
}

func TestProductStatisticsAndAnalytics(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	john := addCustomer(t, db, "John Doe", "john@x.com", "website", true)
	lamp := &models.Product{Name: "Lamp", Price: 20}
	chair := &models.Product{Name: "Chair", Price: 50}
	idle := &models.Product{Name: "Idle", Price: 5}
	require.NoError(t, db.Create(lamp).Error)
	require.NoError(t, db.Create(chair).Error)
	require.NoError(t, db.Create(idle).Error)

	addOrder(t, db, john, lamp, models.StatusPending)
	addOrder(t, db, john, lamp, models.StatusDelivered)
	addOrder(t, db, john, chair, models.StatusOutForDelivery)

	st, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalProducts)
	assert.Equal(t, int64(3), st.TotalOrders)
	assert.InDelta(t, 90.0, st.TotalRevenue, 0.001)
	assert.InDelta(t, 30.0, st.AvgOrderValue, 0.001)

	a, err := svc.ProductAnalyticsFor(ctx)
	require.NoError(t, err)
	require.Len(t, a.TopProducts, 3)
	assert.Equal(t, TopProduct{Name: "Lamp", OrderCount: 2}, a.TopProducts[0])
	assert.Equal(t, TopProduct{Name: "Idle", OrderCount: 0}, a.TopProducts[2])
	assert.Equal(t, int64(3), a.MonthlyOrders)
	assert.InDelta(t, 90.0, a.MonthlyRevenue, 0.001)

	counts, err := svc.OrderStatuses(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCounts{Total: 3, Pending: 1, OutForDelivery: 1, Delivered: 1}, counts)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.TotalCustomers)
	assert.Equal(t, int64(3), d.Total)
}

func TestEmptyProductStatistics(t *testing.T) {
	svc := New(getTestDB(t))
	st, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProductStats{}, st)
}

func TestSalesReport(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	john := addCustomer(t, db, "John Doe", "john@x.com", "website", true)
	lamp := &models.Product{Name: "Lamp", Price: 20}
	require.NoError(t, db.Create(lamp).Error)
	addOrder(t, db, john, lamp, models.StatusPending)
	addOrder(t, db, john, lamp, models.StatusPending)

	now := time.Now().UTC()
	r, err := svc.Sales(ctx, now.AddDate(0, 0, -1), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.TotalOrders)
	assert.InDelta(t, 40.0, r.TotalSales, 0.001)
	assert.InDelta(t, 20.0, r.AvgOrderValue, 0.001)
	require.Len(t, r.DailySales, 1)
	assert.Equal(t, int64(2), r.DailySales[0].OrderCount)

	empty, err := svc.Sales(ctx, now.AddDate(0, 0, -10), now.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Empty(t, empty.DailySales)
	assert.Equal(t, now.AddDate(0, 0, -10).Format("2006-01-02"), empty.Period.Start)
}

func TestUserStatistics(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{Username: "a", Password: "x", Role: models.RoleAdmin, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.User{Username: "b", Password: "x", Role: models.RoleCustomer}).Error)

	st, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserStats{Total: 2, Active: 1, Inactive: 1, Recent: 2}, st)

	a, err := svc.UserAnalyticsFor(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserAnalytics{MonthlyGrowth: 2, ActiveUsers: 1, InactiveUsers: 1, TotalUsers: 2}, a)
}

func TestExportCustomersCSV(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	addCustomer(t, db, "John Doe", "john@x.com", "website", true)
	addCustomer(t, db, "Jane, Smith", "", "ads", true)

	out, err := svc.ExportCustomers(ctx, "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CustomerCSVHeader, records[0])
	assert.Equal(t, "Jane, Smith", records[2][0])
	assert.Equal(t, "", records[2][1])
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), records[1][4])

	unsupported, err := svc.ExportCustomers(ctx, "xml")
	require.NoError(t, err)
	assert.Empty(t, unsupported)
}

func TestExportProductsAndUsersCSV(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Product{Name: "Lamp", Price: 12.5, Category: models.CategoryIndoor}).Error)
	require.NoError(t, db.Create(&models.User{Username: "a", Password: "x", Role: models.RoleAdmin, IsActive: true}).Error)

	out, err := svc.ExportProducts(ctx, "csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Lamp", "", "12.5", "Indoor"}, records[1][:4])

	out, err = svc.ExportUsers(ctx, "csv")
	require.NoError(t, err)
	records, err = csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, UserCSVHeader, records[0])
	assert.Equal(t, "true", records[1][5])
}

func TestCustomerTrends(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	signups := map[string]string{
		"a": "2024-03-04T09:00:00Z",
		"b": "2024-03-04T17:30:00Z",
		"c": "2024-03-06T12:00:00Z",
		"d": "2024-05-01T12:00:00Z",
	}
	for name, at := range signups {
		c := addCustomer(t, db, name, "", "website", true)
		ts, err := time.Parse(time.RFC3339, at)
		require.NoError(t, err)
		require.NoError(t, db.Model(c).UpdateColumn("created_at", ts).Error)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	tr, err := svc.CustomerTrends(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tr.TotalCustomers)
	assert.Equal(t, []DailyCount{{Day: "2024-03-04", Count: 2}, {Day: "2024-03-06", Count: 1}}, tr.DailySignups)
	assert.InDelta(t, 0.3, tr.DailySignupsAvg, 0.0001)
	assert.Equal(t, "2024-03-04", tr.PeakSignupDay)
	assert.Equal(t, int64(2), tr.PeakSignups)

	empty, err := svc.CustomerTrends(ctx, start.AddDate(1, 0, 0), end.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCustomers)
	assert.Empty(t, empty.DailySignups)
	assert.Empty(t, empty.PeakSignupDay)
}

func TestSalesPatterns(t *testing.T) {
	db := getTestDB(t)
	svc := New(db)
	ctx := context.Background()

	john := addCustomer(t, db, "John Doe", "john@x.com", "website", true)
	lamp := &models.Product{Name: "Lamp", Price: 20}
	mug := &models.Product{Name: "Mug", Price: 5}
	require.NoError(t, db.Create(lamp).Error)
	require.NoError(t, db.Create(mug).Error)

	placed := []struct {
		product *models.Product
		at      time.Time
	}{
		{lamp, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
		{mug, time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)},
		{mug, time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)},
		{lamp, time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, p := range placed {
		o := &models.Order{CustomerID: &john.ID, ProductID: &p.product.ID, Status: models.StatusDelivered}
		require.NoError(t, db.Omit("Customer", "Product").Create(o).Error)
		require.NoError(t, db.Model(o).UpdateColumn("created_at", p.at).Error)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC)
	p, err := svc.SalesPatterns(ctx, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, p.TotalRevenue, 0.001)
	assert.InDelta(t, 50.0/61, p.AvgDailySales, 0.0001)
	assert.Equal(t, "2024-03-04", p.PeakSalesDay)
	assert.InDelta(t, 25.0, p.PeakSalesAmount, 0.001)

	require.Len(t, p.WeeklyPattern, 7)
	assert.Equal(t, "Monday", p.WeeklyPattern[0].Weekday)
	assert.InDelta(t, 45.0, p.WeeklyPattern[0].Total, 0.001)
	assert.Equal(t, "Saturday", p.WeeklyPattern[5].Weekday)
	assert.InDelta(t, 5.0, p.WeeklyPattern[5].Total, 0.001)
	assert.Equal(t, "Sunday", p.WeeklyPattern[6].Weekday)

	require.Len(t, p.MonthlyPattern, 2)
	assert.Equal(t, MonthSales{Month: "2024-03", Total: 30}, p.MonthlyPattern[0])
	assert.Equal(t, MonthSales{Month: "2024-04", Total: 20}, p.MonthlyPattern[1])
}
