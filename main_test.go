package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/config"
	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/models"
)

const testPassword = "Secret#123"

// Create DB connection for tests
func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type testApp struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *auth.SessionManager
	cfg      config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	db := getTestDB(t)
	sessions := auth.NewSessionManager("test-secret", time.Hour, nil)
	r, err := SetupRouter(Deps{
		DB:       db,
		Config:   cfg,
		Logger:   zaptest.NewLogger(t),
		Sessions: sessions,
	})
	require.NoError(t, err)
	return &testApp{router: r, db: db, sessions: sessions, cfg: cfg}
}

func (a *testApp) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: username + "@example.com", Password: hash, Role: role, IsActive: true}
	require.NoError(t, a.db.Create(u).Error)
	if role == models.RoleCustomer {
		c := &models.Customer{UserID: &u.ID, Name: username, Source: "website", IsActive: true}
		require.NoError(t, a.db.Create(c).Error)
	}
	return u
}

func (a *testApp) cookieFor(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	token, _, err := a.sessions.Issue(u)
	require.NoError(t, err)
	return &http.Cookie{Name: a.cfg.Auth.CookieName, Value: token}
}

func (a *testApp) do(method, path string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) postJSON(method, path string, payload interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return a.do(method, path, bytes.NewBuffer(body), "application/json", cookie)
}

func (a *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", cookie)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// ----------------------- TESTS ----------------------- //

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/health", nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateCustomer(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	customer := map[string]interface{}{
		"name":  "June Jun",
		"email": "junejun@gmail.com",
		"phone": "0712345678",
	}
	w := app.postJSON(http.MethodPost, "/api/customers", customer, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "June Jun", resp["name"])
	assert.Equal(t, "junejun@gmail.com", resp["email"])
	assert.Equal(t, "website", resp["source"])
	assert.Equal(t, true, resp["is_active"])
	assert.NotEmpty(t, resp["created_at"])

	w = app.postJSON(http.MethodPost, "/api/customers", customer, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")
}

func TestCreateCustomerValidationErrors(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	w := app.postJSON(http.MethodPost, "/api/customers", map[string]string{"email": "nope", "phone": "123"}, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error  string `json:"error"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var fields []string
	for _, e := range resp.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "phone"}, fields)
	assert.Contains(t, resp.Error, "Name is required")
}

func TestAPIInvalidJSON(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	w := app.do(http.MethodPost, "/api/customers", strings.NewReader("{not json"), "application/json", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON"}`, w.Body.String())
}

func TestAPIRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/customers", nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	customer := app.cookieFor(t, app.createUser(t, "bob", models.RoleCustomer))
	w = app.do(http.MethodGet, "/api/customers", nil, "", customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPIListCustomersPaginates(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	for i := 0; i < 12; i++ {
		require.NoError(t, app.db.Create(&models.Customer{Name: fmt.Sprintf("Customer %02d", i), IsActive: true}).Error)
	}

	w := app.do(http.MethodGet, "/api/customers?page=2&per_page=5", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 2, resp["current_page"])
	assert.EqualValues(t, 3, resp["total_pages"])
	assert.EqualValues(t, 12, resp["total_count"])
	assert.Len(t, resp["customers"], 5)

	w = app.do(http.MethodGet, "/api/customers?page=99&per_page=5", nil, "", admin)
	resp = decode(t, w)
	assert.EqualValues(t, 3, resp["current_page"])
	assert.Len(t, resp["customers"], 2)

	w = app.do(http.MethodGet, "/api/customers?search=customer%2001", nil, "", admin)
	resp = decode(t, w)
	assert.EqualValues(t, 1, resp["total_count"])
}

func TestAPIUpdateAndDeleteCustomer(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	c := &models.Customer{Name: "Jane Smith", Phone: "0711111111", IsActive: true}
	c.SetEmail("jane@x.com")
	require.NoError(t, app.db.Create(c).Error)
	path := fmt.Sprintf("/api/customers/%d", c.ID)

	w := app.postJSON(http.MethodPut, path, map[string]interface{}{"phone": "0722222222", "is_active": false}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "Jane Smith", resp["name"])
	assert.Equal(t, "jane@x.com", resp["email"])
	assert.Equal(t, "0722222222", resp["phone"])
	assert.Equal(t, false, resp["is_active"])

	w = app.do(http.MethodGet, path, nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodDelete, path, nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Customer deleted successfully"}`, w.Body.String())

	w = app.do(http.MethodGet, path, nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Customer not found"}`, w.Body.String())

	w = app.do(http.MethodDelete, path, nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIExportCustomers(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	require.NoError(t, app.db.Create(&models.Customer{Name: "John Doe", IsActive: true}).Error)

	w := app.do(http.MethodGet, "/api/customers/export?format=csv", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "customers.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Name,Email,Phone,Source,Created At"))
	assert.Contains(t, w.Body.String(), "John Doe")

	w = app.do(http.MethodGet, "/api/customers/export?format=xml", nil, "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIStatistics(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	for _, name := range []string{"John Doe", "Jane Smith"} {
		require.NoError(t, app.db.Create(&models.Customer{Name: name, IsActive: true}).Error)
	}

	w := app.do(http.MethodGet, "/api/customers/statistics", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"active":2,"inactive":0,"recent":2}`, w.Body.String())

	w = app.do(http.MethodGet, "/api/customers/analytics", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 2, resp["monthly_growth"])
	assert.Len(t, resp["source_distribution"], 1)

	w = app.do(http.MethodGet, "/api/products/statistics", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_products":0,"total_orders":0,"total_revenue":0,"avg_order_value":0}`, w.Body.String())

	w = app.do(http.MethodGet, "/api/products/analytics", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "top_products")

	w = app.do(http.MethodGet, "/api/orders/statistics?start=2024-01-01&end=2024-01-31", nil, "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"start":"2024-01-01"`)
	assert.Contains(t, w.Body.String(), `"end":"2024-01-31"`)

	w = app.do(http.MethodGet, "/api/orders/statistics?start=yesterday", nil, "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIUnexpectedErrorReturnsMessage(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	require.NoError(t, app.db.Migrator().DropTable(&models.Order{}, &models.Customer{}))

	w := app.do(http.MethodGet, "/api/customers", nil, "", admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "no such table")
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/api/nothing-here", nil, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/customers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "admin", models.RoleAdmin)
	app.createUser(t, "bob", models.RoleCustomer)

	w := app.postForm("/login/", url.Values{"username": {"admin"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username or password is incorrect")

	w = app.postForm("/login/", url.Values{"username": {"admin"}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == app.cfg.Auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	w = app.do(http.MethodGet, "/customers/", nil, "", session)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.postForm("/login/", url.Values{"username": {"bob"}, "password": {testPassword}, "next": {"https://evil.example"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/user/", w.Header().Get("Location"))
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	w := app.do(http.MethodGet, "/logout/", nil, "", admin)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/customers/", nil, "", admin)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login/"))
}

func TestRoleGates(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	customer := app.cookieFor(t, app.createUser(t, "bob", models.RoleCustomer))

	w := app.do(http.MethodGet, "/customers/", nil, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fcustomers%2F", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/", nil, "", customer)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/user/", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/customers/", nil, "", customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You are not authorized to view this page")

	w = app.do(http.MethodGet, "/user/", nil, "", admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/login/", nil, "", admin)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/user/", nil, "", customer)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterCreatesCustomerAccount(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {testPassword},
		"confirm_password": {testPassword},
	}
	w := app.postForm("/register/", form, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	var u models.User
	require.NoError(t, app.db.Where("username = ?", "alice").First(&u).Error)
	assert.Equal(t, models.RoleCustomer, u.Role)
	var c models.Customer
	require.NoError(t, app.db.Where("user_id = ?", u.ID).First(&c).Error)
	assert.Equal(t, "alice@example.com", c.EmailAddress())

	form.Set("confirm_password", "Other#123")
	w = app.postForm("/register/", form, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
	assert.Contains(t, w.Body.String(), "Passwords do not match")
}

func TestCreateCustomerPage(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	w := app.postForm("/create_customer/", url.Values{"phone": {"07123"}}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Name is required")
	assert.Contains(t, w.Body.String(), "Phone number must be at least 10 digits")

	w = app.postForm("/create_customer/", url.Values{"name": {"Peter Pan"}, "phone": {"0712345678"}, "is_active": {"on"}}, admin)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/customers/", w.Header().Get("Location"))

	var c models.Customer
	require.NoError(t, app.db.Where("name = ?", "Peter Pan").First(&c).Error)
	assert.True(t, c.IsActive)
	assert.Nil(t, c.Email)

	w = app.do(http.MethodGet, fmt.Sprintf("/customer/%d/", c.ID), nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Peter Pan")

	w = app.do(http.MethodGet, "/customer/9999/", nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderFormset(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	c := &models.Customer{Name: "John Doe", IsActive: true}
	require.NoError(t, app.db.Create(c).Error)
	p := &models.Product{Name: "Ball", Price: 12.5}
	require.NoError(t, app.db.Create(p).Error)
	path := fmt.Sprintf("/create_order/%d/", c.ID)

	w := app.postForm(path, url.Values{"order_set-TOTAL_FORMS": {"2"}}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Add at least one order")

	w = app.postForm(path, url.Values{
		"order_set-TOTAL_FORMS": {"51"},
		"order_set-0-product":   {fmt.Sprint(p.ID)},
		"order_set-0-status":    {"pending"},
	}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Too many orders")

	form := url.Values{
		"order_set-TOTAL_FORMS": {"3"},
		"order_set-0-product":   {fmt.Sprint(p.ID)},
		"order_set-0-status":    {"pending"},
		"order_set-1-product":   {fmt.Sprint(p.ID)},
		"order_set-1-status":    {"delivered"},
	}
	w = app.postForm(path, form, admin)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	var orders []models.Order
	require.NoError(t, app.db.Where("customer_id = ?", c.ID).Order("id").Find(&orders).Error)
	require.Len(t, orders, 2)
	assert.Equal(t, models.StatusPending, orders[0].Status)
	assert.Equal(t, models.StatusDelivered, orders[1].Status)

	w = app.do(http.MethodGet, "/?status=delivered", nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("/update_order/%d/", orders[1].ID))
	assert.NotContains(t, w.Body.String(), fmt.Sprintf("/update_order/%d/", orders[0].ID))

	w = app.postForm(fmt.Sprintf("/update_order/%d/", orders[0].ID), url.Values{
		"customer": {fmt.Sprint(c.ID)},
		"product":  {fmt.Sprint(p.ID)},
		"status":   {"Out for delivery"},
	}, admin)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	var updated models.Order
	require.NoError(t, app.db.First(&updated, orders[0].ID).Error)
	assert.Equal(t, models.StatusOutForDelivery, updated.Status)

	w = app.postForm(fmt.Sprintf("/delete_order/%d/", orders[0].ID), nil, admin)
	assert.Equal(t, http.StatusFound, w.Code)
	var n int64
	app.db.Model(&models.Order{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestProductPages(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))
	tag := &models.Tag{Name: "Sports"}
	require.NoError(t, app.db.Create(tag).Error)

	w := app.postForm("/create_product/", url.Values{"name": {"Ball"}, "price": {"abc"}}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Price must be a valid number")

	w = app.postForm("/create_product/", url.Values{
		"name":     {"Ball"},
		"price":    {"12.50"},
		"category": {"Outdoor"},
		"tags":     {fmt.Sprint(tag.ID)},
	}, admin)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var p models.Product
	require.NoError(t, app.db.Preload("Tags").Where("name = ?", "Ball").First(&p).Error)
	assert.Equal(t, 12.5, p.Price)
	assert.Equal(t, models.CategoryOutdoor, p.Category)
	require.Len(t, p.Tags, 1)

	w = app.do(http.MethodGet, "/products/?q=bal", nil, "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ball")

	w = app.postForm(fmt.Sprintf("/delete_product/%d/", p.ID), nil, admin)
	assert.Equal(t, http.StatusFound, w.Code)
	w = app.do(http.MethodGet, fmt.Sprintf("/update_product/%d/", p.ID), nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagPages(t *testing.T) {
	app := newTestApp(t)
	admin := app.cookieFor(t, app.createUser(t, "admin", models.RoleAdmin))

	w := app.postForm("/create_tag/", url.Values{"name": {"  "}}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tag name is required")

	w = app.postForm("/create_tag/", url.Values{"name": {"Summer"}}, admin)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/tags/", w.Header().Get("Location"))

	var tag models.Tag
	require.NoError(t, app.db.Where("name = ?", "Summer").First(&tag).Error)

	w = app.do(http.MethodGet, "/tags/", nil, "", admin)
	assert.Contains(t, w.Body.String(), "Summer")

	w = app.postForm(fmt.Sprintf("/delete_tag/%d/", tag.ID), nil, admin)
	assert.Equal(t, http.StatusFound, w.Code)
	w = app.do(http.MethodGet, fmt.Sprintf("/delete_tag/%d/", tag.ID), nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeactivatedAccountLosesSession(t *testing.T) {
	app := newTestApp(t)
	bob := app.createUser(t, "bob", models.RoleCustomer)
	cookie := app.cookieFor(t, bob)
	require.Equal(t, http.StatusOK, app.do(http.MethodGet, "/user/", nil, "", cookie).Code)

	require.NoError(t, app.db.Model(bob).UpdateColumn("is_active", false).Error)
	w := app.do(http.MethodGet, "/user/", nil, "", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login/"))

	admin := app.createUser(t, "admin", models.RoleAdmin)
	adminCookie := app.cookieFor(t, admin)
	require.NoError(t, app.db.Model(admin).UpdateColumn("role", models.RoleCustomer).Error)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodGet, "/customers/", nil, "", adminCookie).Code)
}

func TestUserPageAndSettings(t *testing.T) {
	app := newTestApp(t)
	bob := app.createUser(t, "bob", models.RoleCustomer)
	cookie := app.cookieFor(t, bob)

	w := app.postForm("/settings/", url.Values{"name": {"Bob Builder"}, "phone": {"0733333333"}, "email": {"bob@builder.com"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/settings/", w.Header().Get("Location"))

	var c models.Customer
	require.NoError(t, app.db.Where("user_id = ?", bob.ID).First(&c).Error)
	assert.Equal(t, "Bob Builder", c.Name)
	assert.Equal(t, "bob@builder.com", c.EmailAddress())

	w = app.do(http.MethodGet, "/user/", nil, "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bob Builder")
}
