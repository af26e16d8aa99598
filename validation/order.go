package validation

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/judyrop/crm/models"
)

// RecordExists is satisfied by the customer and product repositories.
type RecordExists interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// OrderInput is one order as submitted by the update form.
type OrderInput struct {
	Customer string
	Product  string
	Status   string
}

// ValidateOrder checks references and status and returns the order to save.
func ValidateOrder(ctx context.Context, customers, products RecordExists, in OrderInput) (*models.Order, Errors, error) {
	var errs Errors
	o := &models.Order{}

	id, err := checkReference(ctx, customers, &errs, "customer", "Customer", in.Customer)
	if err != nil {
		return nil, nil, err
	}
	if id != 0 {
		o.CustomerID = &id
	}

	pid, err := checkReference(ctx, products, &errs, "product", "Product", in.Product)
	if err != nil {
		return nil, nil, err
	}
	if pid != 0 {
		o.ProductID = &pid
	}

	o.Status = checkStatus(&errs, in.Status)

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return o, nil, nil
}

func checkReference(ctx context.Context, store RecordExists, errs *Errors, field, label, raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.add(field, KindRequired, label+" is required")
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		errs.add(field, KindChoice, "Select a valid "+field)
		return 0, nil
	}
	ok, err := store.Exists(ctx, uint(id))
	if err != nil {
		return 0, fmt.Errorf("check %s: %w", field, err)
	}
	if !ok {
		errs.add(field, KindChoice, "Select a valid "+field)
		return 0, nil
	}
	return uint(id), nil
}

func checkStatus(errs *Errors, raw string) models.OrderStatus {
	if strings.TrimSpace(raw) == "" {
		errs.add("status", KindRequired, "Status is required")
		return ""
	}
	s, ok := models.ParseOrderStatus(raw)
	if !ok {
		errs.add("status", KindChoice, "Select a valid status")
		return ""
	}
	return s
}

// MaxFormsetRows is the most rows one submission may carry. Larger
// submissions are rejected and only the first MaxFormsetRows rows are bound.
const MaxFormsetRows = 50

// OrderRow is one row of the create-order formset. The customer is fixed by
// the page, so a row only carries product and status.
type OrderRow struct {
	Product string
	Status  string
	Errors  Errors
}

func (r OrderRow) blank() bool {
	return strings.TrimSpace(r.Product) == "" && strings.TrimSpace(r.Status) == ""
}

// OrderFormset binds several order rows to one customer in a single post.
type OrderFormset struct {
	Prefix         string
	Rows           []OrderRow
	NonFieldErrors []string
}

// NewOrderFormset returns extra blank rows for an unbound form.
func NewOrderFormset(prefix string, extra int) *OrderFormset {
	return &OrderFormset{Prefix: prefix, Rows: make([]OrderRow, extra)}
}

// ParseOrderFormset reads "<prefix>-TOTAL_FORMS" and the "<prefix>-<i>-<field>" values.
func ParseOrderFormset(values url.Values, prefix string) *OrderFormset {
	f := &OrderFormset{Prefix: prefix}
	total, err := strconv.Atoi(values.Get(prefix + "-TOTAL_FORMS"))
	if err != nil || total < 0 {
		f.NonFieldErrors = append(f.NonFieldErrors, "Management form data is missing or has been tampered with")
		return f
	}
	if total > MaxFormsetRows {
		f.NonFieldErrors = append(f.NonFieldErrors, fmt.Sprintf("Too many orders, submit at most %d at once", MaxFormsetRows))
		total = MaxFormsetRows
	}
	f.Rows = make([]OrderRow, total)
	for i := range f.Rows {
		f.Rows[i] = OrderRow{
			Product: values.Get(f.FieldName(i, "product")),
			Status:  values.Get(f.FieldName(i, "status")),
		}
	}
	return f
}

func (f *OrderFormset) FieldName(i int, field string) string {
	return fmt.Sprintf("%s-%d-%s", f.Prefix, i, field)
}

func (f *OrderFormset) TotalForms() int { return len(f.Rows) }

// Valid reports whether the last Validate call left no errors.
func (f *OrderFormset) Valid() bool {
	if len(f.NonFieldErrors) > 0 {
		return false
	}
	for _, r := range f.Rows {
		if len(r.Errors) > 0 {
			return false
		}
	}
	return true
}

// Validate checks every non-blank row. Blank rows are skipped, but at least
// one row must be filled in. The orders are only returned when all rows pass.
func (f *OrderFormset) Validate(ctx context.Context, customerID uint, products RecordExists) ([]models.Order, error) {
	if len(f.NonFieldErrors) > 0 {
		return nil, nil
	}
	var orders []models.Order
	for i := range f.Rows {
		row := &f.Rows[i]
		row.Errors = nil
		if row.blank() {
			continue
		}
		pid, err := checkReference(ctx, products, &row.Errors, "product", "Product", row.Product)
		if err != nil {
			return nil, err
		}
		status := checkStatus(&row.Errors, row.Status)
		if len(row.Errors) > 0 {
			continue
		}
		cid := customerID
		orders = append(orders, models.Order{CustomerID: &cid, ProductID: &pid, Status: status})
	}
	if !f.Valid() {
		return nil, nil
	}
	if len(orders) == 0 {
		f.NonFieldErrors = append(f.NonFieldErrors, "Add at least one order")
		return nil, nil
	}
	return orders, nil
}
