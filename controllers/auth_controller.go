package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/validation"
)

type registerForm struct {
	Username string
	Email    string
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Login", "Next": c.Query("next"), "Username": ""})
}

func (h *Handler) Login(c *gin.Context) {
	username := c.PostForm("username")
	next := c.PostForm("next")

	u, err := auth.Login(c.Request.Context(), h.Users, username, c.PostForm("password"))
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, apperrors.ErrMissingCredentials):
			msg = "Username and password are required"
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			msg = "Username or password is incorrect"
		case errors.Is(err, apperrors.ErrInactiveAccount):
			msg = "This account has been deactivated"
		default:
			h.pageError(c, err)
			return
		}
		h.Logger.Info("login rejected", zap.String("username", username), zap.Error(err))
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Title":    "Login",
			"Error":    msg,
			"Username": username,
			"Next":     next,
		})
		return
	}

	token, expires, err := h.Sessions.Issue(u)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.setSession(c, token, expires)
	h.Logger.Info("user logged in", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	h.redirect(c, safeNext(next, homeFor(u.Role)))
}

func (h *Handler) Logout(c *gin.Context) {
	if id, ok := auth.FromContext(c.Request.Context()); ok {
		if err := h.Sessions.Revoke(c.Request.Context(), id); err != nil {
			h.Logger.Warn("failed to revoke session", zap.Error(err))
		}
	}
	h.clearSession(c)
	h.redirect(c, "/login/")
}

func (h *Handler) RegisterPage(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": registerForm{}})
}

// Register creates a customer account together with its customer record.
func (h *Handler) Register(c *gin.Context) {
	in := validation.RegistrationInput{
		Username:        c.PostForm("username"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
	}
	form := registerForm{Username: strings.TrimSpace(in.Username), Email: strings.TrimSpace(in.Email)}

	errs, err := validation.ValidateRegistration(c.Request.Context(), h.Users, h.Auth.Password, in)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if len(errs) == 0 {
		errs, err = validation.ValidateCustomer(c.Request.Context(), h.Customers, validation.CustomerInput{Name: form.Username, Email: form.Email})
		if err != nil {
			h.pageError(c, err)
			return
		}
	}
	if len(errs) > 0 {
		h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": form, "Errors": errs})
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.pageError(c, err)
		return
	}
	u := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	cust := &models.Customer{Name: form.Username, Source: "website", IsActive: true}
	cust.SetEmail(form.Email)

	if err := h.Users.CreateWithCustomer(c.Request.Context(), u, cust); err != nil {
		var field, msg string
		switch {
		case errors.Is(err, apperrors.ErrDuplicateUsername):
			field, msg = "username", "Username already exists"
		case errors.Is(err, apperrors.ErrDuplicateEmail):
			field, msg = "email", "Email already exists"
		default:
			h.pageError(c, err)
			return
		}
		errs = validation.Errors{{Field: field, Kind: validation.KindDuplicate, Message: msg}}
		h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Form": form, "Errors": errs})
		return
	}

	h.emit(c, events.UserRegistered, u.ID, gin.H{"username": u.Username, "customer_id": cust.ID})
	h.setFlash(c, "An account for "+u.Username+" was created")
	h.redirect(c, "/login/")
}
