package http

import (
	"errors"
	"net/http"
	"strings"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/dto"
	"golang-stock-recommender/internal/tracker/service"
	"golang-stock-recommender/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WeekHandler handles HTTP requests for weeks and pipeline stages.
type WeekHandler struct {
	orchestrator *service.Orchestrator
	ingestion    *service.FeedIngestionService
	reporting    *service.ReportingService
	logger       *logger.Logger
}

// NewWeekHandler creates a new WeekHandler.
func NewWeekHandler(orchestrator *service.Orchestrator, ingestion *service.FeedIngestionService, reporting *service.ReportingService, logger *logger.Logger) *WeekHandler {
	return &WeekHandler{
		orchestrator: orchestrator,
		ingestion:    ingestion,
		reporting:    reporting,
		logger:       logger,
	}
}

// RegisterRoutes registers the week routes to the Echo group.
func (h *WeekHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListWeeks)
	g.GET("/current", h.CurrentWeek)
	g.GET("/:week_id/ranking", h.GetRanking)
	g.POST("/:week_id/raw-text", h.SubmitRawText)
	g.POST("/:week_id/parse", h.ParseWeek)
	g.POST("/:week_id/resolve-codes", h.ResolveCodes)
	g.POST("/:week_id/sync-prices", h.SyncPrices)
	g.POST("/:week_id/retry-failed", h.RetryFailed)
	g.POST("/:week_id/run", h.RunPipeline)
	g.POST("/ingest-feeds", h.IngestFeeds)
	g.DELETE("/:week_id", h.DeleteWeek)
}

// ListWeeks godoc
// @Summary List all weeks
// @Description List every week known to storage, newest first
// @Tags weeks
// @Produce  json
// @Success 200 {array} dto.WeekInfo
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks [get]
func (h *WeekHandler) ListWeeks(c echo.Context) error {
	weeks, err := h.reporting.ListWeeks(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, weeks)
}

// CurrentWeek godoc
// @Summary Get the current ISO week
// @Tags weeks
// @Produce  json
// @Success 200 {object} dto.CurrentWeekResponse
// @Router /weeks/current [get]
func (h *WeekHandler) CurrentWeek(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reporting.CurrentWeek())
}

// GetRanking godoc
// @Summary Get a week's ranking
// @Description Picks sorted by percent change descending, unpriced picks trailing
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID, e.g. 2026-W35"
// @Success 200 {object} dto.RankingResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/ranking [get]
func (h *WeekHandler) GetRanking(c echo.Context) error {
	ranking, err := h.reporting.WeekRanking(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, ranking)
}

// SubmitRawText godoc
// @Summary Submit a week's raw recommendation text
// @Tags weeks
// @Accept  json
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Param   body     body    dto.SubmitRawTextRequest  true    "Raw text"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/raw-text [post]
func (h *WeekHandler) SubmitRawText(c echo.Context) error {
	var req dto.SubmitRawTextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if strings.TrimSpace(req.RawText) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "raw_text must not be empty"})
	}

	if err := h.orchestrator.SubmitRawText(c.Request().Context(), c.Param("week_id"), req.RawText); err != nil {
		return h.errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ParseWeek godoc
// @Summary Extract recommendations from a week's raw text
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 200 {object} dto.StageResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/parse [post]
func (h *WeekHandler) ParseWeek(c echo.Context) error {
	result, err := h.orchestrator.ParseWeek(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ResolveCodes godoc
// @Summary Resolve stock codes for a week's pending records
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 200 {object} dto.StageResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/resolve-codes [post]
func (h *WeekHandler) ResolveCodes(c echo.Context) error {
	result, err := h.orchestrator.ResolveWeek(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// SyncPrices godoc
// @Summary Fetch weekly open and close prices for a week's resolved records
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 200 {object} dto.StageResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/sync-prices [post]
func (h *WeekHandler) SyncPrices(c echo.Context) error {
	result, err := h.orchestrator.SyncWeek(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// RetryFailed godoc
// @Summary Reset a week's failed records for another attempt
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 200 {object} dto.StageResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/retry-failed [post]
func (h *WeekHandler) RetryFailed(c echo.Context) error {
	result, err := h.orchestrator.RetryFailed(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// RunPipeline godoc
// @Summary Run the full pipeline for a week
// @Description Extract, resolve, sync and aggregate in sequence under the run lease
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 200 {object} dto.PipelineRunResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id}/run [post]
func (h *WeekHandler) RunPipeline(c echo.Context) error {
	result, err := h.orchestrator.Run(c.Request().Context(), c.Param("week_id"))
	if err != nil {
		if errors.Is(err, entity.ErrRunActive) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return h.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// IngestFeeds godoc
// @Summary Pull RSS feed posts into the current week's raw text
// @Tags weeks
// @Produce  json
// @Success 200 {object} dto.IngestFeedsResult
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/ingest-feeds [post]
func (h *WeekHandler) IngestFeeds(c echo.Context) error {
	result, err := h.ingestion.IngestCurrentWeek(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteWeek godoc
// @Summary Delete a week's raw text and records
// @Tags weeks
// @Produce  json
// @Param   week_id  path    string  true    "Week ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /weeks/{week_id} [delete]
func (h *WeekHandler) DeleteWeek(c echo.Context) error {
	if err := h.reporting.DeleteWeek(c.Request().Context(), c.Param("week_id")); err != nil {
		return h.errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WeekHandler) errorJSON(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrInvalidWeekID):
		status = http.StatusBadRequest
	case entity.IsTransient(err):
		status = http.StatusBadGateway
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
