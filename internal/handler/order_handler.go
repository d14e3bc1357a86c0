package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/service"
	"github.com/glimmershop/store_api/internal/utils"
)

var validate = validator.New()

// OrderHandler serves storefront order lookups.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// GetByExternalID handles GET /v1/orders/:externalId. The thanks page polls
// this after the checkout redirect to show payment and delivery progress.
func (h *OrderHandler) GetByExternalID(c *gin.Context) {
	externalID := c.Param("externalId")

	order, err := h.orderSvc.GetByExternalID(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, utils.ErrOrderNotFound) {
			utils.Error(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		log.Error().Err(err).Str("external_id", externalID).Msg("Failed to get order")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get order")
		return
	}

	utils.Success(c, http.StatusOK, "Order retrieved", order)
}

// ListByEmail handles GET /v1/orders?email=. Serves the purchase-history
// page.
func (h *OrderHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if err := validate.Var(email, "required,email"); err != nil {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter 'email' must be a valid email address")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.orderSvc.ListByCustomerEmail(c.Request.Context(), email, page, limit)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to list orders")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list orders")
		return
	}

	utils.SuccessWithPagination(c, http.StatusOK, "Orders retrieved", orders, page, limit, total)
}
