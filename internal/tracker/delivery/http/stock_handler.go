package http

import (
	"errors"
	"net/http"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StockHandler handles HTTP requests for stock lookups.
type StockHandler struct {
	reporting *service.ReportingService
	logger    *logger.Logger
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(reporting *service.ReportingService, logger *logger.Logger) *StockHandler {
	return &StockHandler{reporting: reporting, logger: logger}
}

// RegisterRoutes registers the stock routes to the Echo group.
func (h *StockHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}

// Search godoc
// @Summary Resolve a stock name or code to its market and code
// @Tags stocks
// @Produce  json
// @Param   name  query    string  true    "Stock name or 6-digit code"
// @Success 200 {object} dto.StockMatch
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /stocks/search [get]
func (h *StockHandler) Search(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name query parameter is required"})
	}

	match, err := h.reporting.SearchStock(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, entity.ErrCodeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		if entity.IsTransient(err) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, match)
}
