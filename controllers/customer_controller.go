package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/validation"
)

type customerForm struct {
	Name     string
	Phone    string
	Email    string
	Source   string
	IsActive bool
}

func bindCustomerForm(c *gin.Context) customerForm {
	in := validation.CustomerInput{
		Name:   c.PostForm("name"),
		Phone:  c.PostForm("phone"),
		Email:  c.PostForm("email"),
		Source: c.PostForm("source"),
	}.Normalize()
	return customerForm{
		Name:     in.Name,
		Phone:    in.Phone,
		Email:    in.Email,
		Source:   in.Source,
		IsActive: c.PostForm("is_active") != "",
	}
}

func (f customerForm) input(id uint) validation.CustomerInput {
	return validation.CustomerInput{ID: id, Name: f.Name, Phone: f.Phone, Email: f.Email, Source: f.Source}
}

func (f customerForm) apply(cust *models.Customer) {
	cust.Name = f.Name
	cust.Phone = f.Phone
	cust.SetEmail(f.Email)
	cust.Source = f.Source
	if cust.Source == "" {
		cust.Source = "website"
	}
	cust.IsActive = f.IsActive
}

// duplicateEmail turns a unique-index violation that slipped past validation
// into a form error.
func duplicateEmail(err error) (validation.Errors, bool) {
	if !errors.Is(err, apperrors.ErrDuplicateEmail) {
		return nil, false
	}
	return validation.Errors{{Field: "email", Kind: validation.KindDuplicate, Message: "Email already exists"}}, true
}

// ListCustomers is the paginated, searchable customer list.
func (h *Handler) ListCustomers(c *gin.Context) {
	query := c.Query("q")
	number, _ := strconv.Atoi(c.Query("page"))
	page, err := h.Customers.Paginate(c.Request.Context(), query, repository.PageRequest{Number: number},
		h.Pagination.PageSize, h.Pagination.MaxPageSize)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "customers.html", gin.H{"Title": "Customers", "Page": page, "Query": query})
}

func (h *Handler) CustomerDetail(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.pageError(c, err)
		return
	}
	customer, err := h.Customers.GetWithOrders(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	counts, err := h.Stats.OrderStatuses(c.Request.Context(), customer.ID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "customer.html", gin.H{"Title": customer.Name, "Customer": customer, "Counts": counts})
}

func (h *Handler) renderCustomerForm(c *gin.Context, status int, title, action string, form customerForm, errs validation.Errors) {
	h.render(c, status, "customer_form.html", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) CreateCustomerPage(c *gin.Context) {
	h.renderCustomerForm(c, http.StatusOK, "Create customer", "/create_customer/", customerForm{Source: "website", IsActive: true}, nil)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	form := bindCustomerForm(c)
	errs, err := validation.ValidateCustomer(ctx, h.Customers, form.input(0))
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.renderCustomerForm(c, http.StatusOK, "Create customer", "/create_customer/", form, errs)
		return
	}

	var customer models.Customer
	form.apply(&customer)
	if err := h.Customers.Create(ctx, &customer); err != nil {
		if errs, ok := duplicateEmail(err); ok {
			h.renderCustomerForm(c, http.StatusOK, "Create customer", "/create_customer/", form, errs)
			return
		}
		h.pageError(c, err)
		return
	}
	h.emit(c, events.CustomerCreated, customer.ID, customerJSON(&customer))
	h.setFlash(c, fmt.Sprintf("Customer %s was created", customer.Name))
	h.redirect(c, "/customers/")
}

func (h *Handler) UpdateCustomerPage(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.pageError(c, err)
		return
	}
	customer, err := h.Customers.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	form := customerForm{
		Name:     customer.Name,
		Phone:    customer.Phone,
		Email:    customer.EmailAddress(),
		Source:   customer.Source,
		IsActive: customer.IsActive,
	}
	h.renderCustomerForm(c, http.StatusOK, "Update customer", fmt.Sprintf("/update_customer/%d/", id), form, nil)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "customer")
	if err != nil {
		h.pageError(c, err)
		return
	}
	customer, err := h.Customers.Get(ctx, id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	action := fmt.Sprintf("/update_customer/%d/", id)
	form := bindCustomerForm(c)
	errs, err := validation.ValidateCustomer(ctx, h.Customers, form.input(id))
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.renderCustomerForm(c, http.StatusOK, "Update customer", action, form, errs)
		return
	}

	form.apply(customer)
	if err := h.Customers.Update(ctx, customer); err != nil {
		if errs, ok := duplicateEmail(err); ok {
			h.renderCustomerForm(c, http.StatusOK, "Update customer", action, form, errs)
			return
		}
		h.pageError(c, err)
		return
	}
	h.emit(c, events.CustomerUpdated, customer.ID, customerJSON(customer))
	h.redirect(c, fmt.Sprintf("/customer/%d/", id))
}

func (h *Handler) DeleteCustomerPage(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.pageError(c, err)
		return
	}
	customer, err := h.Customers.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "delete.html", gin.H{
		"Title":  "Delete customer",
		"Item":   customer.Name,
		"Action": fmt.Sprintf("/delete_customer/%d/", id),
		"Cancel": fmt.Sprintf("/customer/%d/", id),
	})
}

// DeleteCustomer removes the customer together with its orders.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, err := pathID(c, "customer")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if err := h.Customers.Delete(c.Request.Context(), id); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.CustomerDeleted, id, nil)
	h.setFlash(c, "Customer deleted")
	h.redirect(c, "/customers/")
}
