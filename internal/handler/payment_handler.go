package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/internal/application"
	"github.com/rentalflow/service-rental/pkg/auth"
	"github.com/rentalflow/service-rental/pkg/middleware"
	"github.com/rentalflow/service-rental/pkg/response"
)

// PaymentHandler handles HTTP requests for the checkout flow.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers all payment routes on the given router group.
// The verify endpoint doubles as the provider callback, so it is public.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	payments := r.Group("/api/v1/payments")
	{
		payments.GET("/verify/:tx_ref", h.VerifyPayment)

		payments.POST("/initialize", authMW, h.InitializePayment)
		payments.POST("/:id/refund", authMW, middleware.RequireRole(auth.RoleAdmin), h.RefundPayment)
		payments.GET("/booking/:booking_id", authMW, h.GetBookingPayments)
	}
}

// InitializePayment handles POST /api/v1/payments/initialize.
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.InitializePayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// VerifyPayment handles GET /api/v1/payments/verify/:tx_ref.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	txRef := c.Param("tx_ref")
	if txRef == "" {
		response.BadRequest(c, "missing transaction reference")
		return
	}

	result, err := h.service.VerifyPayment(c.Request.Context(), txRef)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RefundPayment handles POST /api/v1/payments/:id/refund.
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	var body struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RefundPayment(c.Request.Context(), paymentID, body.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingPayments handles GET /api/v1/payments/booking/:booking_id.
func (h *PaymentHandler) GetBookingPayments(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetBookingPayments(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
