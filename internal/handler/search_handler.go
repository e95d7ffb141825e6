package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

// SearchHandler handles marketplace search endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search fans the query out to all marketplaces and returns the merged,
// price-sorted offers plus the best deal. Optional refinement params:
// category, min_price, max_price, min_rating, marketplace, sort.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")

	results, err := h.searchService.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidQuery) {
			utils.Error(c, 400, "INVALID_QUERY", "Search query must be at least 3 characters")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Search failed")
		return
	}

	opts, err := refineOptionsFromQuery(c)
	if err != nil {
		utils.Error(c, 400, "INVALID_FILTER", err.Error())
		return
	}
	refined := service.Refine(results, opts)

	utils.Success(c, 200, "Search completed", gin.H{
		"results":  refined,
		"bestDeal": service.BestDeal(refined),
		"total":    len(refined),
	})
}

func refineOptionsFromQuery(c *gin.Context) (service.RefineOptions, error) {
	opts := service.RefineOptions{
		Category:    c.Query("category"),
		Marketplace: c.Query("marketplace"),
		Sort:        models.ResultSort(c.DefaultQuery("sort", string(models.SortRelevance))),
	}

	parse := func(param string) (*decimal.Decimal, error) {
		raw := c.Query(param)
		if raw == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.New(param + " must be a decimal number")
		}
		return &d, nil
	}

	var err error
	if opts.MinPrice, err = parse("min_price"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = parse("max_price"); err != nil {
		return opts, err
	}
	if opts.MinRating, err = parse("min_rating"); err != nil {
		return opts, err
	}
	return opts, nil
}
