package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/models"
)

// CustomerRepository is the gorm-backed customer store.
type CustomerRepository struct {
	DB *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

// List returns every customer in primary key order.
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := r.DB.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("customer", id)
		}
		return nil, err
	}
	return &c, nil
}

// GetWithOrders loads the customer and its orders, newest first, with products.
func (r *CustomerRepository) GetWithOrders(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	err := r.DB.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		Preload("Orders.Product").
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("customer", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("customer", 0)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	if c.Source == "" {
		c.Source = "website"
	}
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

// Update saves every column of c.
func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	res := r.DB.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"phone":       c.Phone,
			"email":       c.Email,
			"profile_pic": c.ProfilePic,
			"source":      c.Source,
			"is_active":   c.IsActive,
		})
	if err := translate(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("customer", c.ID)
	}
	return r.DB.WithContext(ctx).First(c, c.ID).Error
}

// Delete removes the customer and every order that references it.
func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("delete customer orders: %w", err)
		}
		res := tx.Delete(&models.Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("customer", id)
		}
		return nil
	})
}

// EmailTaken reports whether another customer (not excludeID) already uses email.
func (r *CustomerRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.Customer{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CustomerRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Search matches name, email or phone case-insensitively.
func (r *CustomerRepository) Search(ctx context.Context, query string) ([]models.Customer, error) {
	var customers []models.Customer
	err := containsAny(r.DB.WithContext(ctx), query, "name", "email", "phone").
		Order("id").Find(&customers).Error
	return customers, err
}

// Paginate lists customers newest first, or search matches in primary key
// order when query is not empty.
func (r *CustomerRepository) Paginate(ctx context.Context, query string, req PageRequest, def, max int) (Page[models.Customer], error) {
	base := r.DB.WithContext(ctx).Model(&models.Customer{})
	order := "created_at DESC, id DESC"
	if query != "" {
		base = containsAny(base, query, "name", "email", "phone")
		order = "id"
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[models.Customer]{}, err
	}
	number, perPage, totalPages, offset := req.Normalize(def, max, total)

	var items []models.Customer
	err := base.Session(&gorm.Session{}).Order(order).Offset(offset).Limit(perPage).Find(&items).Error
	if err != nil {
		return Page[models.Customer]{}, err
	}
	return Page[models.Customer]{
		Items:      items,
		Number:     number,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalCount: total,
	}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrDuplicateEmail
	}
	return err
}
