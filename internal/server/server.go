package server

import (
	"net/http"

	"github.com/fastfire9/empire-backend/internal/config"
	"github.com/fastfire9/empire-backend/internal/handler"
	"github.com/fastfire9/empire-backend/internal/mailer"
	appmw "github.com/fastfire9/empire-backend/internal/middleware"
	"github.com/fastfire9/empire-backend/internal/ocr"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/fastfire9/empire-backend/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Validator struct {
	validator *validator.Validate
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &Validator{validator: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	engine := ocr.NewGeminiEngine(cfg.OCRModel)
	sessions := appmw.NewSessionManager(cfg.SessionSecret)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	credRepo := repository.NewCredentialRepository(db)
	hashRepo := repository.NewFlaggedHashRepository(db)

	productSvc := service.NewProductService(productRepo)
	credSvc := service.NewCredentialService(credRepo, mail, cfg.OwnerEmail)
	orderSvc := service.NewOrderService(orderRepo, productRepo, mail, cfg.OwnerEmail, cfg.PaymentTag)
	verifySvc := service.NewVerificationService(service.VerificationConfig{
		PaymentTag:         cfg.PaymentTag,
		FallbackTags:       cfg.FallbackTags,
		CandidateThreshold: cfg.CandidateThreshold,
		ConfidentThreshold: cfg.ConfidentThreshold,
		TagMatchThreshold:  cfg.TagMatchThreshold,
		EntropyCutoff:      cfg.EntropyCutoff,
		OwnerEmail:         cfg.OwnerEmail,
	}, engine, orderRepo, productRepo, hashRepo, credSvc, mail)

	productHandler := handler.NewProductHandler(productSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, verifySvc)
	adminHandler := handler.NewAdminHandler(sessions, orderSvc, productSvc, credSvc, hashRepo, mail,
		cfg.AdminUsername, cfg.AdminPasswordHash, cfg.OwnerEmail)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/orders", orderHandler.Place)
	api.POST("/orders/verify", orderHandler.VerifyScreenshot)
	api.GET("/orders/:reference", orderHandler.GetByReference)

	admin := e.Group("/admin")
	loginLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(1)))
	admin.POST("/login", adminHandler.Login, loginLimiter)
	admin.GET("/logout", adminHandler.Logout)
	admin.GET("/session", adminHandler.Session)

	authed := admin.Group("", sessions.RequireAdmin)
	authed.GET("/orders", adminHandler.ListOrders)
	authed.POST("/orders/:id/accept", adminHandler.AcceptOrder)
	authed.POST("/orders/:id/decline", adminHandler.DeclineOrder)
	authed.POST("/orders/:id/unflag", adminHandler.UnflagOrder)
	authed.POST("/orders/:id/deliver", adminHandler.DeliverOrder)
	authed.POST("/products", adminHandler.CreateProduct)
	authed.PUT("/products/:id", adminHandler.UpdateProduct)
	authed.DELETE("/products/:id", adminHandler.DeleteProduct)
	authed.GET("/products/:id/credentials", adminHandler.ListCredentials)
	authed.POST("/products/:id/credentials", adminHandler.ProvisionCredential)
	authed.DELETE("/flagged-hashes", adminHandler.PurgeFlaggedHashes)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
