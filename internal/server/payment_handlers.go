package server

import (
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type paymentSheetRequest struct {
	Cents int64 `json:"cents"`
}

type buyPlanRequest struct {
	PriceTier string `json:"price_tier"`
}

type appleReceiptRequest struct {
	ProductID       string `json:"productId" validate:"required"`
	TransactionDate string `json:"transactionDate" validate:"required"`
	TransactionID   string `json:"transactionId" validate:"required"`
	Receipt         string `json:"transactionReceipt" validate:"required"`
}

type planRequest struct {
	PriceID     string `json:"price_id" validate:"required,max=255"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type stripeSettingRequest struct {
	UserID          uint `json:"user" validate:"required"`
	IsWalletConnect bool `json:"is_wallet_connect"`
	ApplicationFee  int  `json:"application_fee" validate:"min=0,max=100"`
}

type appleProductRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	ProductID string `json:"product_id" validate:"required,max=255"`
	IsActive  *bool  `json:"is_active"`
}

func (s *Server) paymentRoutes(r fiber.Router) {
	r.Post("/stripe_webhook", s.StripeWebhook)
	r.Get("/apple/get_products", s.GetAppleProducts)

	protected := r.Group("", s.AuthRequired())
	sheet := middleware.RateLimitWithPolicy(s.redis, 30, time.Minute, middleware.FailClosed, "payment_sheet")
	protected.Post("/payment_sheet", sheet, s.CreatePaymentSheet)
	protected.Post("/create_payment_intent_sheet", sheet, s.CreatePaymentSheet)
	protected.Get("/get_payments_history", s.GetPaymentHistory)
	protected.Get("/get_payments_methods", s.GetPaymentMethods)
	protected.Get("/get_subscription_plans", s.GetSubscriptionPlans)
	protected.Post("/buy_subscription_plan", s.BuySubscriptionPlan)
	protected.Post("/cancel_subscription_plan", s.CancelSubscriptionPlan)
	protected.Post("/apple/verify/receipt", s.VerifyAppleReceipt)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Post("/plans", s.SaveSubscriptionPlan)
	admin.Put("/plans", s.SaveSubscriptionPlan)
	admin.Put("/stripe_settings", s.SaveStripeSetting)
	admin.Post("/apple/products", s.CreateAppleProduct)
}

// StripeWebhook handles POST /modules/payments/stripe_webhook
// @Summary Receive a Stripe event
// @Description Verifies the Stripe-Signature header when a webhook secret is configured.
// @Tags payments
// @Accept json
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/payments/stripe_webhook [post]
func (s *Server) StripeWebhook(c *fiber.Ctx) error {
	// Body() is reused by fasthttp once the handler returns.
	payload := append([]byte(nil), c.Body()...)
	if err := s.paymentService.HandleWebhook(c.UserContext(), payload, c.Get("Stripe-Signature")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// GetAppleProducts handles GET /modules/payments/apple/get_products
// @Summary Active Apple in-app purchase products
// @Tags payments
// @Produce json
// @Success 200 {array} models.AppleIAPProduct
// @Router /modules/payments/apple/get_products [get]
func (s *Server) GetAppleProducts(c *fiber.Ctx) error {
	products, err := s.paymentService.AppleProducts(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(products)
}

// CreatePaymentSheet handles POST /modules/payments/payment_sheet and
// /modules/payments/create_payment_intent_sheet
// @Summary Create a payment intent for the mobile payment sheet
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body paymentSheetRequest false "Amount in cents, defaults to 100"
// @Success 200 {object} billing.PaymentSheet
// @Failure 400 {object} map[string]string
// @Router /modules/payments/payment_sheet [post]
func (s *Server) CreatePaymentSheet(c *fiber.Ctx) error {
	var req paymentSheetRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return nil
		}
	}

	sheet, err := s.paymentService.PaymentSheet(c.UserContext(), currentUserID(c), req.Cents)
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(sheet)
}

// GetPaymentHistory handles GET /modules/payments/get_payments_history
// @Summary Caller's payment intents
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Router /modules/payments/get_payments_history [get]
func (s *Server) GetPaymentHistory(c *fiber.Ctx) error {
	intents, err := s.paymentService.PaymentHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": intents})
}

// GetPaymentMethods handles GET /modules/payments/get_payments_methods
func (s *Server) GetPaymentMethods(c *fiber.Ctx) error {
	methods, err := s.paymentService.PaymentMethods(c.UserContext(), currentUserID(c))
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": methods})
}

// GetSubscriptionPlans handles GET /modules/payments/get_subscription_plans
// @Summary Active plans, flagging the caller's current one
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Router /modules/payments/get_subscription_plans [get]
func (s *Server) GetSubscriptionPlans(c *fiber.Ctx) error {
	plans, err := s.paymentService.Plans(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": plans})
}

// BuySubscriptionPlan handles POST /modules/payments/buy_subscription_plan
// @Summary Subscribe to a plan or switch the current subscription
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body buyPlanRequest true "Price to subscribe to"
// @Failure 400 {object} map[string]string
// @Router /modules/payments/buy_subscription_plan [post]
func (s *Server) BuySubscriptionPlan(c *fiber.Ctx) error {
	var req buyPlanRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	sub, err := s.paymentService.BuyPlan(c.UserContext(), currentUserID(c), req.PriceTier)
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(sub)
}

// CancelSubscriptionPlan handles POST /modules/payments/cancel_subscription_plan
func (s *Server) CancelSubscriptionPlan(c *fiber.Ctx) error {
	if err := s.paymentService.CancelPlan(c.UserContext(), currentUserID(c)); err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// VerifyAppleReceipt handles POST /modules/payments/apple/verify/receipt
// @Summary Verify an App Store receipt
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body appleReceiptRequest true "Receipt"
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/payments/apple/verify/receipt [post]
func (s *Server) VerifyAppleReceipt(c *fiber.Ctx) error {
	var req appleReceiptRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	result, err := s.paymentService.VerifyAppleReceipt(c.UserContext(), currentUserID(c), service.AppleReceiptInput{
		ProductID:       req.ProductID,
		TransactionDate: req.TransactionDate,
		TransactionID:   req.TransactionID,
		Receipt:         req.Receipt,
	})
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": result})
}

// SaveSubscriptionPlan handles POST|PUT /modules/payments/admin/plans
// @Summary Create or update the plan for a Stripe price
// @Tags payments-admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body planRequest true "Plan"
// @Success 200 {object} models.SubscriptionPlan
// @Router /modules/payments/admin/plans [post]
func (s *Server) SaveSubscriptionPlan(c *fiber.Ctx) error {
	var req planRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	plan, err := s.paymentService.SavePlan(c.UserContext(), service.PlanInput{
		PriceID:     req.PriceID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    active,
	})
	if err != nil {
		return providerFailure(c, err)
	}
	return c.JSON(plan)
}

// SaveStripeSetting handles PUT /modules/payments/admin/stripe_settings
func (s *Server) SaveStripeSetting(c *fiber.Ctx) error {
	var req stripeSettingRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	setting := &models.StripeSetting{
		UserID:          req.UserID,
		IsWalletConnect: req.IsWalletConnect,
		ApplicationFee:  req.ApplicationFee,
	}
	if err := s.paymentService.SaveStripeSetting(c.UserContext(), setting); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(setting)
}

// CreateAppleProduct handles POST /modules/payments/admin/apple/products
func (s *Server) CreateAppleProduct(c *fiber.Ctx) error {
	var req appleProductRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	product := &models.AppleIAPProduct{Name: req.Name, ProductID: req.ProductID, IsActive: true}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.paymentService.CreateAppleProduct(c.UserContext(), product); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}
