package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/cache"
	"github.com/judyrop/crm/config"
	"github.com/judyrop/crm/controllers"
	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/events"
	"github.com/judyrop/crm/logging"
	"github.com/judyrop/crm/middleware"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/web"
)

// Deps is everything the router needs. Bearer and Events may be nil.
type Deps struct {
	DB       *gorm.DB
	Config   config.Config
	Logger   *zap.Logger
	Sessions *auth.SessionManager
	Bearer   auth.TokenVerifier
	Events   events.Publisher
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	revocations, closeRedis := openRevocations(cfg, logger)
	defer closeRedis()
	sessions := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, revocations)

	publisher := openPublisher(cfg, logger)
	defer publisher.Close()

	var bearer auth.TokenVerifier
	if cfg.Auth.OIDCIssuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		v, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID, cfg.Auth.OIDCRoleClaim)
		cancel()
		if err != nil {
			return fmt.Errorf("init oidc: %w", err)
		}
		bearer = v
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := SetupRouter(Deps{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Bearer:   bearer,
		Events:   publisher,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logging.StdLogger(logger, zap.ErrorLevel),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openRevocations prefers redis and falls back to process memory when redis
// is not configured or unreachable.
func openRevocations(cfg config.Config, logger *zap.Logger) (auth.Revocations, func()) {
	if cfg.Redis.Addr == "" {
		return auth.NewMemoryRevocations(), func() {}
	}
	client, err := cache.NewRedisClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, session revocations kept in memory", zap.Error(err))
		return auth.NewMemoryRevocations(), func() {}
	}
	return cache.NewRedisRevocations(client), client.Close
}

func openPublisher(cfg config.Config, logger *zap.Logger) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}
	p, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		logger.Warn("amqp unavailable, domain events disabled", zap.Error(err))
		return events.NopPublisher{}
	}
	return p
}

func SetupRouter(d Deps) (*gin.Engine, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.RequestID(), middleware.Logger(d.Logger), middleware.Recovery(d.Logger))

	if len(d.Config.CORS.AllowOrigins) > 0 {
		corsCfg := cors.Config{
			AllowOrigins:     d.Config.CORS.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		if err := corsCfg.Validate(); err != nil {
			return nil, fmt.Errorf("cors: %w", err)
		}
		r.Use(cors.New(corsCfg))
	}

	authn := &middleware.Authenticator{
		Sessions:   d.Sessions,
		Bearer:     d.Bearer,
		Accounts:   repository.NewUserRepository(d.DB),
		CookieName: d.Config.Auth.CookieName,
		Logger:     d.Logger,
	}
	r.Use(authn.Authenticate())

	h := controllers.New(d.DB, d.Config, d.Sessions, d.Events, d.Logger)
	r.NoRoute(h.NotFound)

	// Health check endpoint
	r.GET("/health", h.Health)

	guest := r.Group("/", middleware.UnauthenticatedOnly("/"))
	guest.GET("/login/", h.LoginPage)
	guest.POST("/login/", h.Login)
	guest.GET("/register/", h.RegisterPage)
	guest.POST("/register/", h.Register)
	r.GET("/logout/", h.Logout)

	pages := r.Group("/", middleware.LoginRequired("/login/"))
	pages.GET("/", middleware.RedirectRoles("/user/", models.RoleCustomer), middleware.AdminOnly(), h.Dashboard)

	account := pages.Group("/", middleware.AllowedRoles(models.RoleCustomer))
	account.GET("/user/", h.UserPage)
	account.GET("/settings/", h.SettingsPage)
	account.POST("/settings/", h.Settings)

	admin := pages.Group("/", middleware.AdminOnly())
	admin.GET("/customers/", h.ListCustomers)
	admin.GET("/customer/:id/", h.CustomerDetail)
	admin.GET("/create_customer/", h.CreateCustomerPage)
	admin.POST("/create_customer/", h.CreateCustomer)
	admin.GET("/update_customer/:id/", h.UpdateCustomerPage)
	admin.POST("/update_customer/:id/", h.UpdateCustomer)
	admin.GET("/delete_customer/:id/", h.DeleteCustomerPage)
	admin.POST("/delete_customer/:id/", h.DeleteCustomer)

	admin.GET("/products/", h.ListProducts)
	admin.GET("/create_product/", h.CreateProductPage)
	admin.POST("/create_product/", h.CreateProduct)
	admin.GET("/update_product/:id/", h.UpdateProductPage)
	admin.POST("/update_product/:id/", h.UpdateProduct)
	admin.GET("/delete_product/:id/", h.DeleteProductPage)
	admin.POST("/delete_product/:id/", h.DeleteProduct)

	admin.GET("/tags/", h.ListTags)
	admin.GET("/create_tag/", h.CreateTagPage)
	admin.POST("/create_tag/", h.CreateTag)
	admin.GET("/delete_tag/:id/", h.DeleteTagPage)
	admin.POST("/delete_tag/:id/", h.DeleteTag)

	admin.GET("/create_order/:id/", h.CreateOrderPage)
	admin.POST("/create_order/:id/", h.CreateOrder)
	admin.GET("/update_order/:id/", h.UpdateOrderPage)
	admin.POST("/update_order/:id/", h.UpdateOrder)
	admin.GET("/delete_order/:id/", h.DeleteOrderPage)
	admin.POST("/delete_order/:id/", h.DeleteOrder)
	admin.GET("/status/", h.Status)
	admin.GET("/orders/", h.ListOrders)

	api := r.Group("/api", middleware.LoginRequired("/login/"), middleware.AdminOnly())
	api.GET("/customers", h.APIListCustomers)
	api.POST("/customers", h.APICreateCustomer)
	api.GET("/customers/statistics", h.APICustomerStatistics)
	api.GET("/customers/analytics", h.APICustomerAnalytics)
	api.GET("/customers/export", h.APIExportCustomers)
	api.GET("/customers/:id", h.APIGetCustomer)
	api.PUT("/customers/:id", h.APIUpdateCustomer)
	api.DELETE("/customers/:id", h.APIDeleteCustomer)
	api.GET("/products/statistics", h.APIProductStatistics)
	api.GET("/products/analytics", h.APIProductAnalytics)
	api.GET("/orders/statistics", h.APIOrderStatistics)

	return r, nil
}
