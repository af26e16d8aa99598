package validation

import (
	"context"
	"fmt"
	"strings"
)

// CustomerLookup answers the uniqueness question for customer emails.
type CustomerLookup interface {
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
}

// CustomerInput is the raw customer form or JSON body. ID is zero on create.
type CustomerInput struct {
	ID     uint
	Name   string
	Phone  string
	Email  string
	Source string
}

// Normalize trims surrounding whitespace from every text field.
func (in CustomerInput) Normalize() CustomerInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Source = strings.TrimSpace(in.Source)
	return in
}

// ValidateCustomer runs every customer check and returns all failures. The
// returned error is only set when the lookup itself failed.
func ValidateCustomer(ctx context.Context, lookup CustomerLookup, in CustomerInput) (Errors, error) {
	in = in.Normalize()
	var errs Errors

	if in.Name == "" {
		errs.add("name", KindRequired, "Name is required")
	} else if tooLong(in.Name, 200) {
		errs.add("name", KindLength, "Name must be at most 200 characters")
	}

	if in.Email != "" {
		switch {
		case tooLong(in.Email, 200):
			errs.add("email", KindLength, "Email must be at most 200 characters")
		case !validEmail(in.Email):
			errs.add("email", KindFormat, "Enter a valid email address")
		default:
			taken, err := lookup.EmailTaken(ctx, in.Email, in.ID)
			if err != nil {
				return nil, fmt.Errorf("check customer email: %w", err)
			}
			if taken {
				errs.add("email", KindDuplicate, "Email already exists")
			}
		}
	}

	if in.Phone != "" {
		if len(in.Phone) < 10 {
			errs.add("phone", KindLength, "Phone number must be at least 10 digits")
		} else if tooLong(in.Phone, 200) {
			errs.add("phone", KindLength, "Phone number must be at most 200 characters")
		}
	}

	if tooLong(in.Source, 50) {
		errs.add("source", KindLength, "Source must be at most 50 characters")
	}
	return errs, nil
}
