package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rentloop/rentloop-server/internal/store"
)

// PropertyHandlers provides HTTP handlers for listing management endpoints.
type PropertyHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewPropertyHandlers creates a new property handlers instance.
func NewPropertyHandlers(st store.Store, logger *zerolog.Logger) *PropertyHandlers {
	return &PropertyHandlers{
		store: st,
		log:   logger,
	}
}

// CreatePropertyRequest represents the create listing request body.
type CreatePropertyRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=128"`
	Address     string `json:"address" binding:"required,min=1,max=256"`
	City        string `json:"city" binding:"required,min=1,max=64"`
	MonthlyRent int64  `json:"monthly_rent" binding:"required,gt=0"`
	Bedrooms    int    `json:"bedrooms" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=4096"`
}

// PropertyResponse represents a listing in API responses.
type PropertyResponse struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Title       string `json:"title"`
	Address     string `json:"address"`
	City        string `json:"city"`
	MonthlyRent int64  `json:"monthly_rent"`
	Bedrooms    int    `json:"bedrooms"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func propertyResponse(p *store.Property) PropertyResponse {
	return PropertyResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Address:     p.Address,
		City:        p.City,
		MonthlyRent: p.MonthlyRent,
		Bedrooms:    p.Bedrooms,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateProperty handles listing creation.
// POST /api/properties
func (h *PropertyHandlers) CreateProperty(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create property request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	property := &store.Property{
		OwnerID:     uid,
		Title:       strings.TrimSpace(req.Title),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		MonthlyRent: req.MonthlyRent,
		Bedrooms:    req.Bedrooms,
		Description: req.Description,
	}
	if err := h.store.CreateProperty(c.Request.Context(), property); err != nil {
		h.log.Error().Err(err).Int64("owner_id", uid).Msg("failed to create property")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("property_id", property.ID).Int64("owner_id", uid).Msg("property listed")
	c.JSON(http.StatusCreated, propertyResponse(property))
}

// ListProperties handles browsing available listings.
// GET /api/properties?city=Berlin
func (h *PropertyHandlers) ListProperties(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))

	properties, err := h.store.ListProperties(c.Request.Context(), city)
	if err != nil {
		h.log.Error().Err(err).Str("city", city).Msg("failed to list properties")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]PropertyResponse, 0, len(properties))
	for _, p := range properties {
		response = append(response, propertyResponse(p))
	}

	c.JSON(http.StatusOK, response)
}

// GetProperty handles listing detail.
// GET /api/properties/:id
func (h *PropertyHandlers) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid property id"})
		return
	}

	property, err := h.store.GetPropertyByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "property not found"})
			return
		}
		h.log.Error().Err(err).Int64("property_id", id).Msg("failed to get property")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, propertyResponse(property))
}
