package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/models"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// Login checks the credentials and records the login time. The returned
// errors are apperrors.ErrMissingCredentials, ErrInvalidCredentials and
// ErrInactiveAccount; anything else is a storage failure.
func Login(ctx context.Context, users UserStore, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.ErrMissingCredentials
	}
	u, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	now := time.Now().UTC()
	if err := users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	u.LastLogin = &now
	return u, nil
}
