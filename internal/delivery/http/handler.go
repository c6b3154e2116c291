package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/shoproute/backend/internal/domain"
)

// Evaluator is the engine surface the delivery layer depends on
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.EvaluateRequest) (*domain.EvaluationResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	evaluator       Evaluator
	parser          domain.TextParser // nil when the assistant is not configured
	defaultLocation domain.Location
	logger          *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(evaluator Evaluator, parser domain.TextParser, defaultLocation domain.Location, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		evaluator:       evaluator,
		parser:          parser,
		defaultLocation: defaultLocation,
		logger:          logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shoproute-backend",
		"version": "1.0.0",
	})
}

// evaluatePayload is the wire shape of POST /api/evaluate. Data is a list of
// {category, name} items for option "categorical" and a free-text string for
// option "manual".
type evaluatePayload struct {
	Option            string           `json:"option"`
	Data              json.RawMessage  `json:"data"`
	SelectionType     string           `json:"selectionType"`
	FilterChoice      string           `json:"filterChoice"`
	UserLocation      *domain.Location `json:"userLocation"`
	SelectedPathIndex int              `json:"selectedPathIndex"`
}

// Evaluate handles shop path evaluation requests
func (h *Handler) Evaluate(c *gin.Context) {
	var payload evaluatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No data provided."})
		return
	}

	var items []domain.RequestItem
	switch payload.Option {
	case "categorical":
		if err := json.Unmarshal(payload.Data, &items); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Data should be a list of items."})
			return
		}
	case "manual":
		var text string
		if err := json.Unmarshal(payload.Data, &text); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Data should be a string for manual input."})
			return
		}
		if h.parser == nil {
			c.JSON(http.StatusBadGateway, gin.H{"message": "Text categorization is not configured."})
			return
		}
		parsed, err := h.parser.ParseItems(c.Request.Context(), text)
		if err != nil {
			h.respondParseError(c, err)
			return
		}
		items = parsed
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid option provided."})
		return
	}

	location := h.defaultLocation
	if payload.UserLocation != nil {
		location = *payload.UserLocation
	}

	result, err := h.evaluator.Evaluate(c.Request.Context(), domain.EvaluateRequest{
		Items:             items,
		FilterChoice:      normalizeFilter(payload.FilterChoice),
		SelectionType:     payload.SelectionType,
		UserLocation:      location,
		SelectedPathIndex: payload.SelectedPathIndex,
	})
	if err != nil {
		h.respondEvaluateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondParseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNoStructuredData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Could not extract items from input."})
	case errors.Is(err, domain.ErrAssistantUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Text categorization service unavailable."})
	default:
		h.logger.Error("assistant parse failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
	}
}

func (h *Handler) respondEvaluateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request parameters."})
	case errors.Is(err, domain.ErrPersistence):
		h.logger.Error("commit persistence failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to persist catalog state."})
	default:
		h.logger.Error("evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
	}
}

// normalizeFilter maps the wire filter choice onto the engine's enum;
// anything unrecognized falls back to rating, matching the evaluate contract.
func normalizeFilter(choice string) domain.FilterChoice {
	switch domain.FilterChoice(choice) {
	case domain.FilterTime:
		return domain.FilterTime
	case domain.FilterPrice:
		return domain.FilterPrice
	default:
		return domain.FilterRating
	}
}
