package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

// CatalogHandler handles public catalog browsing endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetCatalog returns one page of the approved catalog.
// Query params: sort (rating|price|reviews), category, cursor (zero-based page).
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	sort := models.SortKey(c.DefaultQuery("sort", string(models.SortByRating)))
	category := c.Query("category")

	cursor := 0
	if v := c.Query("cursor"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.Error(c, 400, "INVALID_CURSOR", "cursor must be a non-negative integer")
			return
		}
		cursor = n
	}

	page, err := h.catalogService.LoadPage(c.Request.Context(), sort, category, cursor)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidSortKey):
			utils.Error(c, 400, "INVALID_SORT_KEY", "sort must be one of rating, price, reviews")
		case errors.Is(err, utils.ErrInvalidCursor):
			utils.Error(c, 400, "INVALID_CURSOR", "cursor must be a non-negative integer")
		case errors.Is(err, utils.ErrFetch):
			utils.Error(c, 503, "FETCH_ERROR", "Catalog temporarily unavailable")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load catalog page")
		}
		return
	}

	utils.SuccessWithPagination(c, 200, "Catalog page retrieved", gin.H{
		"products": page.Products,
	}, cursor, h.catalogService.PageSize(), page.Total, page.NextCursor)
}

// GetCategories returns the distinct categories of the approved catalog.
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.Categories()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved", gin.H{"categories": categories})
}

// GetProduct returns a single product by id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalogService.GetProduct(c.Param("id"))
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load product")
		return
	}
	utils.Success(c, 200, "Product retrieved", gin.H{"product": p})
}
