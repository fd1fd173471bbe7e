package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-heatingoil-orderflow/internal/checkout"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/validation"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// CheckoutService is the checkout pipeline as seen by the HTTP layer.
type CheckoutService interface {
	IssueToken(ctx context.Context, req validation.IssueTokenRequest) (*checkout.IssueTokenResponse, error)
	ResolveToken(ctx context.Context, token string) (*checkout.ResolveTokenResponse, error)
	CreateOrder(ctx context.Context, req validation.CreateOrderRequest, idempotencyKey string) (*checkout.CreateOrderResponse, error)
	OrderStatus(ctx context.Context, orderID string) (*checkout.StatusReport, error)
	ShopBankData(ctx context.Context, shopID string) (*checkout.BankData, error)
	ShopConfig(ctx context.Context, shopID string) (*checkout.ShopConfig, error)
	ProcessInstant(ctx context.Context, req validation.ProcessInstantRequest) (*checkout.ProcessInstantResponse, error)
	ProcessManual(ctx context.Context, req validation.ProcessManualRequest) (*checkout.ProcessManualResponse, error)
}

type checkoutHandler struct {
	svc    CheckoutService
	logger *slog.Logger
}

// RegisterCheckoutRoutes registers the storefront checkout API.
func RegisterCheckoutRoutes(r *gin.Engine, svc CheckoutService, logger *slog.Logger) {
	h := &checkoutHandler{svc: svc, logger: logger}

	r.POST("/order-tokens", h.issueToken)
	r.GET("/order-tokens", h.resolveToken)

	r.POST("/orders", h.createOrder)
	r.GET("/orders/:id/status", h.orderStatus)
	r.POST("/orders/process-instant", h.processInstant)
	r.POST("/orders/process-manual", h.processManual)

	r.GET("/shops/:id/bank-data", h.shopBankData)
	r.GET("/shops/:id/config", h.shopConfig)
}

func (h *checkoutHandler) issueToken(c *gin.Context) {
	var req validation.IssueTokenRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.writeError(c, malformedBody(err), nil)
		return
	}
	resp, err := h.svc.IssueToken(c.Request.Context(), req)
	if err != nil {
		// an unknown or disabled shop is a bad request for the storefront here
		h.writeError(c, err, statusOverrides{
			checkout.KindNotFound: http.StatusBadRequest,
			checkout.KindInactive: http.StatusBadRequest,
		})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *checkoutHandler) resolveToken(c *gin.Context) {
	resp, err := h.svc.ResolveToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *checkoutHandler) createOrder(c *gin.Context) {
	var req validation.CreateOrderRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.writeError(c, malformedBody(err), nil)
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		h.writeError(c, &checkout.Error{
			Kind:    checkout.KindValidation,
			Message: fmt.Sprintf("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLen),
		}, nil)
		return
	}

	resp, err := h.svc.CreateOrder(c.Request.Context(), req, key)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.Header("Location", fmt.Sprintf("/orders/%s/status", resp.OrderID))
	c.JSON(http.StatusCreated, resp)
}

func (h *checkoutHandler) orderStatus(c *gin.Context) {
	resp, err := h.svc.OrderStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *checkoutHandler) processInstant(c *gin.Context) {
	var req validation.ProcessInstantRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.writeError(c, malformedBody(err), nil)
		return
	}
	resp, err := h.svc.ProcessInstant(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *checkoutHandler) processManual(c *gin.Context) {
	var req validation.ProcessManualRequest
	if err := validation.BindJSON(c, &req); err != nil {
		h.writeError(c, malformedBody(err), nil)
		return
	}
	resp, err := h.svc.ProcessManual(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *checkoutHandler) shopBankData(c *gin.Context) {
	resp, err := h.svc.ShopBankData(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *checkoutHandler) shopConfig(c *gin.Context) {
	resp, err := h.svc.ShopConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}
