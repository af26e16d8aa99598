package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/models"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB.WithContext(ctx).Preload("Tags").Order("id").Find(&products).Error
	return products, err
}

func (r *ProductRepository) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Tags").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create inserts the product together with its tag links.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Tags.*").Create(p).Error
}

// Update saves the scalar columns and replaces the tag set with p.Tags.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"name":        p.Name,
				"price":       p.Price,
				"description": p.Description,
				"category":    p.Category,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("product", p.ID)
		}
		tags := p.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		if err := tx.Model(&models.Product{ID: p.ID}).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("replace product tags: %w", err)
		}
		return nil
	})
}

// Delete removes the product, its tag links and every order that references it.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("delete product orders: %w", err)
		}
		if err := tx.Model(&models.Product{ID: id}).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear product tags: %w", err)
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("product", id)
		}
		return nil
	})
}

// Search matches name or description case-insensitively.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	var products []models.Product
	err := containsAny(r.DB.WithContext(ctx), query, "name", "description").
		Preload("Tags").Order("id").Find(&products).Error
	return products, err
}
