package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/judyrop/crm/apperrors"
	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/config"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/stats"
	"github.com/judyrop/crm/validation"
)

const (
	flashCookie   = "crm_flash"
	formsetPrefix = "order_set"
	formsetExtra  = 2
)

// Handler carries the dependencies shared by every page and API handler.
type Handler struct {
	Customers *repository.CustomerRepository
	Products  *repository.ProductRepository
	Tags      *repository.TagRepository
	Orders    *repository.OrderRepository
	Users     *repository.UserRepository
	Stats     *stats.Service

	Sessions   *auth.SessionManager
	Events     events.Publisher
	Logger     *zap.Logger
	Auth       config.AuthConfig
	Pagination config.PaginationConfig
}

func New(db *gorm.DB, cfg config.Config, sessions *auth.SessionManager, publisher events.Publisher, logger *zap.Logger) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		Customers:  repository.NewCustomerRepository(db),
		Products:   repository.NewProductRepository(db),
		Tags:       repository.NewTagRepository(db),
		Orders:     repository.NewOrderRepository(db),
		Users:      repository.NewUserRepository(db),
		Stats:      stats.New(db),
		Sessions:   sessions,
		Events:     publisher,
		Logger:     logger,
		Auth:       cfg.Auth,
		Pagination: cfg.Pagination,
	}
}

// Health check endpoint
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// render adds the values every page template expects.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	id, _ := auth.FromContext(c.Request.Context())
	data["Identity"] = id
	data["Flash"] = h.popFlash(c)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = validation.Errors(nil)
	}
	c.HTML(status, name, data)
}

func (h *Handler) setFlash(c *gin.Context, msg string) {
	c.SetCookie(flashCookie, msg, 60, "/", "", h.Auth.SecureCookie, true)
}

func (h *Handler) popFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", h.Auth.SecureCookie, true)
	return msg
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// pageError renders not-found errors as 404 and logs everything else as a 500.
func (h *Handler) pageError(c *gin.Context, err error) {
	if apperrors.IsNotFound(err) {
		h.render(c, http.StatusNotFound, "error.html", gin.H{"Title": "Not found", "Status": "Not found", "Message": err.Error()})
		return
	}
	_ = c.Error(err)
	h.Logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	h.render(c, http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Status":  "Something went wrong",
		"Message": "The request could not be completed. Please try again.",
	})
}

// pathID reads the ":id" route parameter. Malformed ids are reported as not found.
func pathID(c *gin.Context, entity string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewNotFound(entity, 0)
	}
	return uint(id), nil
}

func parseUint(raw string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

func formatID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func (h *Handler) emit(c *gin.Context, eventType string, id uint, payload interface{}) {
	events.Emit(c.Request.Context(), h.Events, h.Logger, events.New(eventType, id, payload))
}

// homeFor is where a freshly signed-in user lands.
func homeFor(role models.Role) string {
	if role == models.RoleAdmin {
		return "/"
	}
	return "/user/"
}

// safeNext only follows local redirect targets.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}

func (h *Handler) setSession(c *gin.Context, token string, expires time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Auth.CookieName, token, int(time.Until(expires).Seconds()), "/", "", h.Auth.SecureCookie, true)
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Auth.CookieName, "", -1, "/", "", h.Auth.SecureCookie, true)
}

// NotFound answers unknown routes in the format of the surface they hit.
func (h *Handler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.render(c, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Not found",
		"Status":  "Not found",
		"Message": "The page you requested does not exist.",
	})
}
