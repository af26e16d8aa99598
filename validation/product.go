package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/judyrop/crm/models"
)

type TagLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
}

// ProductInput keeps the price as submitted so a non-number can be reported.
type ProductInput struct {
	Name        string
	Price       string
	Description string
	Category    string
	TagIDs      []uint
}

// ValidateProduct checks the input and, when it is clean, returns the product
// to persist with its tags resolved.
func ValidateProduct(ctx context.Context, tags TagLookup, in ProductInput) (*models.Product, Errors, error) {
	var errs Errors
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}

	if p.Name == "" {
		errs.add("name", KindRequired, "Product name is required")
	} else if tooLong(p.Name, 70) {
		errs.add("name", KindLength, "Product name must be at most 70 characters")
	}

	raw := strings.TrimSpace(in.Price)
	if raw == "" {
		errs.add("price", KindRequired, "Price is required")
	} else if price, err := strconv.ParseFloat(raw, 64); err != nil {
		errs.add("price", KindFormat, "Price must be a valid number")
	} else if price <= 0 {
		errs.add("price", KindFormat, "Price must be greater than 0")
	} else {
		p.Price = price
	}

	if tooLong(p.Description, 100) {
		errs.add("description", KindLength, "Description must be at most 100 characters")
	}

	if c, ok := models.ParseCategory(in.Category); ok {
		p.Category = c
	} else {
		errs.add("category", KindChoice, "Select a valid category")
	}

	if ids := uniqueIDs(in.TagIDs); len(ids) > 0 {
		found, err := tags.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve product tags: %w", err)
		}
		if len(found) != len(ids) {
			errs.add("tags", KindChoice, "Select a valid tag")
		}
		p.Tags = found
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return p, nil, nil
}

// ValidateTag checks a tag name.
func ValidateTag(name string) Errors {
	var errs Errors
	name = strings.TrimSpace(name)
	if name == "" {
		errs.add("name", KindRequired, "Tag name is required")
	} else if tooLong(name, 200) {
		errs.add("name", KindLength, "Tag name must be at most 200 characters")
	}
	return errs
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
