package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/validation"
)

const dateLayout = "2006-01-02"

// dashboardFilter echoes the raw query values back into the search form.
type dashboardFilter struct {
	Customer string
	Product  string
	Status   string
	From     string
	To       string
}

// orderFilter converts the query into a repository filter. Unparseable
// values are dropped; the "to" date is inclusive.
func (f dashboardFilter) orderFilter() repository.OrderFilter {
	of := repository.OrderFilter{
		CustomerID: parseUint(f.Customer),
		ProductID:  parseUint(f.Product),
	}
	if s, ok := models.ParseOrderStatus(f.Status); ok {
		of.Status = s
	}
	if t, err := time.ParseInLocation(dateLayout, f.From, time.UTC); err == nil {
		of.CreatedFrom = &t
	}
	if t, err := time.ParseInLocation(dateLayout, f.To, time.UTC); err == nil {
		end := t.AddDate(0, 0, 1)
		of.CreatedTo = &end
	}
	return of
}

func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	filter := dashboardFilter{
		Customer: c.Query("customer"),
		Product:  c.Query("product"),
		Status:   c.Query("status"),
		From:     c.Query("created_from"),
		To:       c.Query("created_to"),
	}
	summary, err := h.Stats.Dashboard(ctx)
	if err != nil {
		h.pageError(c, err)
		return
	}
	orders, err := h.Orders.List(ctx, filter.orderFilter())
	if err != nil {
		h.pageError(c, err)
		return
	}
	customers, err := h.Customers.List(ctx)
	if err != nil {
		h.pageError(c, err)
		return
	}
	products, err := h.Products.List(ctx)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Stats":     summary,
		"Orders":    orders,
		"Customers": customers,
		"Products":  products,
		"Filter":    filter,
	})
}

// currentCustomer loads the customer record linked to the signed-in user.
func (h *Handler) currentCustomer(c *gin.Context) (*models.Customer, error) {
	id, _ := auth.FromContext(c.Request.Context())
	var userID uint
	if id != nil {
		userID = id.UserID
	}
	return h.Customers.GetByUserID(c.Request.Context(), userID)
}

// UserPage lists the signed-in customer's own orders.
func (h *Handler) UserPage(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := h.currentCustomer(c)
	if err != nil {
		h.pageError(c, err)
		return
	}
	orders, err := h.Orders.List(ctx, repository.OrderFilter{CustomerID: customer.ID})
	if err != nil {
		h.pageError(c, err)
		return
	}
	counts, err := h.Stats.OrderStatuses(ctx, customer.ID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "user.html", gin.H{
		"Title":    "My orders",
		"Customer": customer,
		"Orders":   orders,
		"Counts":   counts,
	})
}

type settingsForm struct {
	Name  string
	Phone string
	Email string
}

func (h *Handler) SettingsPage(c *gin.Context) {
	customer, err := h.currentCustomer(c)
	if err != nil {
		h.pageError(c, err)
		return
	}
	form := settingsForm{Name: customer.Name, Phone: customer.Phone, Email: customer.EmailAddress()}
	h.render(c, http.StatusOK, "settings.html", gin.H{"Title": "Settings", "Form": form})
}

// Settings lets a customer edit their own contact details.
func (h *Handler) Settings(c *gin.Context) {
	ctx := c.Request.Context()
	customer, err := h.currentCustomer(c)
	if err != nil {
		h.pageError(c, err)
		return
	}
	in := validation.CustomerInput{
		ID:    customer.ID,
		Name:  c.PostForm("name"),
		Phone: c.PostForm("phone"),
		Email: c.PostForm("email"),
	}.Normalize()
	form := settingsForm{Name: in.Name, Phone: in.Phone, Email: in.Email}

	errs, err := validation.ValidateCustomer(ctx, h.Customers, in)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.render(c, http.StatusOK, "settings.html", gin.H{"Title": "Settings", "Form": form, "Errors": errs})
		return
	}

	customer.Name = in.Name
	customer.Phone = in.Phone
	customer.SetEmail(in.Email)
	if err := h.Customers.Update(ctx, customer); err != nil {
		if errs, ok := duplicateEmail(err); ok {
			h.render(c, http.StatusOK, "settings.html", gin.H{"Title": "Settings", "Form": form, "Errors": errs})
			return
		}
		h.pageError(c, err)
		return
	}
	h.emit(c, events.CustomerUpdated, customer.ID, customerJSON(customer))
	h.setFlash(c, "Your settings were saved")
	h.redirect(c, "/settings/")
}
