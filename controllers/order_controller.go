package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/validation"
)

type orderForm struct {
	Customer string
	Product  string
	Status   string
}

func orderPayload(o *models.Order) gin.H {
	return gin.H{
		"id":          o.ID,
		"customer_id": o.CustomerID,
		"product_id":  o.ProductID,
		"status":      o.Status,
	}
}

func (h *Handler) renderOrderFormset(c *gin.Context, customer *models.Customer, formset *validation.OrderFormset) {
	products, err := h.Products.List(c.Request.Context())
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "order_formset.html", gin.H{
		"Title":    "Place orders",
		"Customer": customer,
		"Formset":  formset,
		"Products": products,
	})
}

func (h *Handler) CreateOrderPage(c *gin.Context) {
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
	h.renderOrderFormset(c, customer, validation.NewOrderFormset(formsetPrefix, formsetExtra))
}

// CreateOrder places every filled-in formset row for one customer.
func (h *Handler) CreateOrder(c *gin.Context) {
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
	if err := c.Request.ParseForm(); err != nil {
		h.pageError(c, err)
		return
	}
	formset := validation.ParseOrderFormset(c.Request.PostForm, formsetPrefix)
	orders, err := formset.Validate(ctx, customer.ID, h.Products)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(orders) == 0 {
		if formset.TotalForms() == 0 {
			formset.Rows = make([]validation.OrderRow, formsetExtra)
		}
		h.renderOrderFormset(c, customer, formset)
		return
	}
	if err := h.Orders.CreateBatch(ctx, orders); err != nil {
		h.pageError(c, err)
		return
	}
	for i := range orders {
		h.emit(c, events.OrderCreated, orders[i].ID, orderPayload(&orders[i]))
	}
	h.setFlash(c, fmt.Sprintf("%d order(s) placed for %s", len(orders), customer.Name))
	h.redirect(c, "/")
}

func (h *Handler) renderOrderForm(c *gin.Context, id uint, form orderForm, errs validation.Errors) {
	ctx := c.Request.Context()
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
	h.render(c, http.StatusOK, "order_form.html", gin.H{
		"Title":     "Update order",
		"Action":    fmt.Sprintf("/update_order/%d/", id),
		"Customers": customers,
		"Products":  products,
		"Form":      form,
		"Errors":    errs,
	})
}

func (h *Handler) UpdateOrderPage(c *gin.Context) {
	id, err := pathID(c, "order")
	if err != nil {
		h.pageError(c, err)
		return
	}
	o, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	form := orderForm{Customer: formatID(o.CustomerID), Product: formatID(o.ProductID), Status: string(o.Status)}
	h.renderOrderForm(c, id, form, nil)
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "order")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if _, err := h.Orders.Get(ctx, id); err != nil {
		h.pageError(c, err)
		return
	}
	form := orderForm{Customer: c.PostForm("customer"), Product: c.PostForm("product"), Status: c.PostForm("status")}
	o, errs, err := validation.ValidateOrder(ctx, h.Customers, h.Products, validation.OrderInput(form))
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) > 0 {
		h.renderOrderForm(c, id, form, errs)
		return
	}
	o.ID = id
	if err := h.Orders.Update(ctx, o); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.OrderUpdated, o.ID, orderPayload(o))
	h.redirect(c, "/")
}

func (h *Handler) DeleteOrderPage(c *gin.Context) {
	id, err := pathID(c, "order")
	if err != nil {
		h.pageError(c, err)
		return
	}
	o, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "delete.html", gin.H{
		"Title":  "Delete order",
		"Item":   o.ProductName(),
		"Action": fmt.Sprintf("/delete_order/%d/", id),
		"Cancel": "/",
	})
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := pathID(c, "order")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if err := h.Orders.Delete(c.Request.Context(), id); err != nil {
		h.pageError(c, err)
		return
	}
	h.emit(c, events.OrderDeleted, id, nil)
	h.redirect(c, "/")
}

// Status groups every order by its delivery status.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.Stats.OrderStatuses(ctx, 0)
	if err != nil {
		h.pageError(c, err)
		return
	}
	grouped := make(map[models.OrderStatus][]models.Order, 3)
	for _, s := range models.OrderStatuses() {
		orders, err := h.Orders.List(ctx, repository.OrderFilter{Status: s})
		if err != nil {
			h.pageError(c, err)
			return
		}
		grouped[s] = orders
	}
	h.render(c, http.StatusOK, "status.html", gin.H{
		"Title":          "Order status",
		"Counts":         counts,
		"Pending":        grouped[models.StatusPending],
		"OutForDelivery": grouped[models.StatusOutForDelivery],
		"Delivered":      grouped[models.StatusDelivered],
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.Orders.List(c.Request.Context(), repository.OrderFilter{})
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "orders.html", gin.H{"Title": "Orders", "Orders": orders})
}
