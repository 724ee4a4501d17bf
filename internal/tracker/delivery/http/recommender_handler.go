package http

import (
	"net/http"

	"golang-stock-recommender/internal/tracker/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RecommenderHandler handles HTTP requests for the recommender leaderboard.
type RecommenderHandler struct {
	reporting    *service.ReportingService
	orchestrator *service.Orchestrator
	logger       *logger.Logger
}

// NewRecommenderHandler creates a new RecommenderHandler.
func NewRecommenderHandler(reporting *service.ReportingService, orchestrator *service.Orchestrator, logger *logger.Logger) *RecommenderHandler {
	return &RecommenderHandler{
		reporting:    reporting,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RegisterRoutes registers the recommender routes to the Echo group.
func (h *RecommenderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetStats)
	g.POST("/recalculate", h.Recalculate)
}

// GetStats godoc
// @Summary Get the recommender leaderboard
// @Description Recommenders ordered by composite score descending
// @Tags recommenders
// @Produce  json
// @Success 200 {object} dto.RecommenderStatsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommenders [get]
func (h *RecommenderHandler) GetStats(c echo.Context) error {
	stats, err := h.reporting.RecommenderStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

// Recalculate godoc
// @Summary Recompute recommender statistics from all priced records
// @Tags recommenders
// @Produce  json
// @Success 200 {object} dto.StageResult
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommenders/recalculate [post]
func (h *RecommenderHandler) Recalculate(c echo.Context) error {
	result, err := h.orchestrator.RefreshStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}
