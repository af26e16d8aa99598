package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/stats"
	"github.com/judyrop/crm/validation"
)

// customerRequest distinguishes omitted fields (nil) from empty ones so that
// updates only touch what the client sent.
type customerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Source   *string `json:"source"`
	IsActive *bool   `json:"is_active"`
}

func (r customerRequest) apply(c *models.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.SetEmail(*r.Email)
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Source != nil {
		c.Source = *r.Source
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
}

func customerJSON(c *models.Customer) gin.H {
	return gin.H{
		"id":         c.ID,
		"name":       c.Name,
		"email":      c.EmailAddress(),
		"phone":      c.Phone,
		"source":     c.Source,
		"is_active":  c.IsActive,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) apiError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
	default:
		_ = c.Error(err)
		h.Logger.Error("api request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func validationFailed(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errs.Error(), "errors": errs})
}

// APIListCustomers returns one page of customers. Out-of-range page numbers
// are clamped rather than rejected.
func (h *Handler) APIListCustomers(c *gin.Context) {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	page, err := h.Customers.Paginate(c.Request.Context(), c.Query("search"),
		repository.PageRequest{Number: number, PerPage: perPage},
		h.Pagination.APIPageSize, h.Pagination.APIMaxPageSize)
	if err != nil {
		h.apiError(c, err)
		return
	}
	items := make([]gin.H, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, customerJSON(&page.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"customers":    items,
		"total_pages":  page.TotalPages,
		"current_page": page.Number,
		"total_count":  page.TotalCount,
	})
}

func (h *Handler) APIGetCustomer(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.apiError(c, err)
		return
	}
	customer, err := h.Customers.Get(c.Request.Context(), id)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, customerJSON(customer))
}

func (h *Handler) APICreateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	customer := models.Customer{Source: "website", IsActive: true}
	req.apply(&customer)

	in := validation.CustomerInput{
		Name:   customer.Name,
		Phone:  customer.Phone,
		Email:  customer.EmailAddress(),
		Source: customer.Source,
	}.Normalize()
	errs, err := validation.ValidateCustomer(ctx, h.Customers, in)
	if err != nil {
		h.apiError(c, err)
		return
	}
	if len(errs) > 0 {
		validationFailed(c, errs)
		return
	}
	customer.Name, customer.Phone, customer.Source = in.Name, in.Phone, in.Source
	customer.SetEmail(in.Email)

	if err := h.Customers.Create(ctx, &customer); err != nil {
		h.apiError(c, err)
		return
	}
	h.emit(c, events.CustomerCreated, customer.ID, customerJSON(&customer))
	c.JSON(http.StatusCreated, customerJSON(&customer))
}

// APIUpdateCustomer applies a partial update: omitted fields keep their value.
func (h *Handler) APIUpdateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "customer")
	if err != nil {
		h.apiError(c, err)
		return
	}
	customer, err := h.Customers.Get(ctx, id)
	if err != nil {
		h.apiError(c, err)
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	req.apply(customer)

	in := validation.CustomerInput{
		ID:     customer.ID,
		Name:   customer.Name,
		Phone:  customer.Phone,
		Email:  customer.EmailAddress(),
		Source: customer.Source,
	}.Normalize()
	errs, err := validation.ValidateCustomer(ctx, h.Customers, in)
	if err != nil {
		h.apiError(c, err)
		return
	}
	if len(errs) > 0 {
		validationFailed(c, errs)
		return
	}
	customer.Name, customer.Phone, customer.Source = in.Name, in.Phone, in.Source
	customer.SetEmail(in.Email)

	if err := h.Customers.Update(ctx, customer); err != nil {
		h.apiError(c, err)
		return
	}
	h.emit(c, events.CustomerUpdated, customer.ID, customerJSON(customer))
	c.JSON(http.StatusOK, customerJSON(customer))
}

func (h *Handler) APIDeleteCustomer(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.apiError(c, err)
		return
	}
	if err := h.Customers.Delete(c.Request.Context(), id); err != nil {
		h.apiError(c, err)
		return
	}
	h.emit(c, events.CustomerDeleted, id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// APIExportCustomers streams the customer list as a CSV attachment.
func (h *Handler) APIExportCustomers(c *gin.Context) {
	format := c.DefaultQuery("format", stats.FormatCSV)
	data, err := h.Stats.ExportCustomers(c.Request.Context(), format)
	if err != nil {
		h.apiError(c, err)
		return
	}
	if data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="customers.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(data))
}

func (h *Handler) APICustomerStatistics(c *gin.Context) {
	summary, err := h.Stats.Customers(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) APICustomerAnalytics(c *gin.Context) {
	analytics, err := h.Stats.CustomerAnalyticsFor(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) APIProductStatistics(c *gin.Context) {
	summary, err := h.Stats.Products(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) APIProductAnalytics(c *gin.Context) {
	analytics, err := h.Stats.ProductAnalyticsFor(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// APIOrderStatistics reports status counts and the sales report for the
// optional start/end dates (YYYY-MM-DD, end inclusive).
func (h *Handler) APIOrderStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	var start, end time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be a YYYY-MM-DD date"})
			return
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be a YYYY-MM-DD date"})
			return
		}
		end = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	counts, err := h.Stats.OrderStatuses(ctx, 0)
	if err != nil {
		h.apiError(c, err)
		return
	}
	sales, err := h.Stats.Sales(ctx, start, end)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": counts, "sales": sales})
}
