package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/models"
)

// OrderFilter narrows order listings; zero fields are ignored.
type OrderFilter struct {
	CustomerID  uint
	ProductID   uint
	Status      models.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (f OrderFilter) apply(db *gorm.DB) *gorm.DB {
	if f.CustomerID != 0 {
		db = db.Where("customer_id = ?", f.CustomerID)
	}
	if f.ProductID != 0 {
		db = db.Where("product_id = ?", f.ProductID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		db = db.Where("created_at < ?", *f.CreatedTo)
	}
	return db
}

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// List returns matching orders newest first with customer and product loaded.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := f.apply(r.DB.WithContext(ctx)).
		Preload("Customer").Preload("Product").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Customer").Preload("Product").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, err
	}
	return &o, nil
}

// CreateBatch inserts the rows of one formset submission in a single statement.
func (r *OrderRepository) CreateBatch(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Omit("Customer", "Product").Create(&orders).Error
}

// Update saves customer, product and status. The save hook validates the status.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	if !o.Status.Valid() {
		return &models.InvalidStatusError{Status: string(o.Status)}
	}
	// Model(o) so the save hook sees the new status.
	res := r.DB.WithContext(ctx).Model(o).Updates(map[string]interface{}{
		"customer_id": o.CustomerID,
		"product_id":  o.ProductID,
		"status":      o.Status,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("order", o.ID)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("order", id)
	}
	return nil
}
