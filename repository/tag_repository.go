package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/models"
)

type TagRepository struct {
	DB *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{DB: db}
}

func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.DB.WithContext(ctx).Order("name, id").Find(&tags).Error
	return tags, err
}

func (r *TagRepository) Get(ctx context.Context, id uint) (*models.Tag, error) {
	var t models.Tag
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("tag", id)
		}
		return nil, err
	}
	return &t, nil
}

// FindByIDs returns the tags that exist among ids.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error
	return tags, err
}

func (r *TagRepository) Create(ctx context.Context, t *models.Tag) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// Delete detaches the tag from every product before removing it.
func (r *TagRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tag{ID: id}).Association("Products").Clear(); err != nil {
			return fmt.Errorf("clear tag products: %w", err)
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("tag", id)
		}
		return nil
	})
}
