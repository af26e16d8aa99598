package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/judyrop/crm/config"
)

type UserLookup interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
}

type RegistrationInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateRegistration checks a new account against the password policy and
// the existing users.
func ValidateRegistration(ctx context.Context, users UserLookup, policy config.PasswordPolicy, in RegistrationInput) (Errors, error) {
	var errs Errors
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	switch {
	case username == "":
		errs.add("username", KindRequired, "Username is required")
	case tooLong(username, 150):
		errs.add("username", KindLength, "Username must be at most 150 characters")
	default:
		taken, err := users.UsernameTaken(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			errs.add("username", KindDuplicate, "Username already exists")
		}
	}

	switch {
	case email == "":
		errs.add("email", KindRequired, "Email is required")
	case !validEmail(email):
		errs.add("email", KindFormat, "Enter a valid email address")
	default:
		taken, err := users.EmailTaken(ctx, email, 0)
		if err != nil {
			return nil, fmt.Errorf("check user email: %w", err)
		}
		if taken {
			errs.add("email", KindDuplicate, "Email already exists")
		}
	}

	errs = append(errs, ValidatePassword(policy, in.Password)...)
	if in.Password != in.ConfirmPassword {
		errs.add("confirm_password", KindMismatch, "Passwords do not match")
	}
	return errs, nil
}

// ValidatePassword applies the configured password policy.
func ValidatePassword(policy config.PasswordPolicy, password string) Errors {
	var errs Errors
	if password == "" {
		errs.add("password", KindRequired, "Password is required")
		return errs
	}
	if len([]rune(password)) < policy.MinLength {
		errs.add("password", KindLength, fmt.Sprintf("Password must be at least %d characters", policy.MinLength))
	}

	var upper, lower, number, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if policy.RequireUpper && !upper {
		errs.add("password", KindFormat, "Password must contain an uppercase letter")
	}
	if policy.RequireLower && !lower {
		errs.add("password", KindFormat, "Password must contain a lowercase letter")
	}
	if policy.RequireNumber && !number {
		errs.add("password", KindFormat, "Password must contain a number")
	}
	if policy.RequireSpecial && !special {
		errs.add("password", KindFormat, "Password must contain a special character")
	}
	return errs
}
