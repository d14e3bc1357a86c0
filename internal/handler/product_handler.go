package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/service"
	"github.com/glimmershop/store_api/internal/utils"
)

// ProductHandler serves the storefront catalog.
type ProductHandler struct {
	catalogSvc *service.CatalogService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(catalogSvc *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogSvc: catalogSvc}
}

// GetProducts handles GET /v1/products. Returns active products with their
// currently available stock counts.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.catalogSvc.ListProducts(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list products")
		return
	}

	utils.Success(c, http.StatusOK, "Products retrieved", products)
}
