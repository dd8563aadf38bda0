package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rentloop/rentloop-server/internal/store"
)

// ApplicationHandlers provides HTTP handlers for rental application endpoints.
type ApplicationHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewApplicationHandlers creates a new application handlers instance.
func NewApplicationHandlers(st store.Store, logger *zerolog.Logger) *ApplicationHandlers {
	return &ApplicationHandlers{
		store: st,
		log:   logger,
	}
}

// CreateApplicationRequest represents the apply request body.
type CreateApplicationRequest struct {
	Message string `json:"message" binding:"max=2048"`
}

// AcceptApplicationRequest represents the accept request body.
type AcceptApplicationRequest struct {
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
}

// ApplicationResponse represents an application in API responses.
type ApplicationResponse struct {
	ID          int64  `json:"id"`
	PropertyID  int64  `json:"property_id"`
	ApplicantID int64  `json:"applicant_id"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func applicationResponse(a *store.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          a.ID,
		PropertyID:  a.PropertyID,
		ApplicantID: a.ApplicantID,
		Message:     a.Message,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateApplication handles a tenant applying for a listing.
// POST /api/properties/:id/applications
func (h *ApplicationHandlers) CreateApplication(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	propertyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid property id"})
		return
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create application request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	property, err := h.store.GetPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "property not found"})
			return
		}
		h.log.Error().Err(err).Int64("property_id", propertyID).Msg("failed to get property")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if property.Status != store.PropertyStatusAvailable {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "property is not available"})
		return
	}
	if property.OwnerID == uid {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "cannot apply for your own property"})
		return
	}

	application := &store.Application{
		PropertyID:  propertyID,
		ApplicantID: uid,
		Message:     req.Message,
	}
	if err := h.store.CreateApplication(c.Request.Context(), application); err != nil {
		h.log.Error().Err(err).Int64("property_id", propertyID).Msg("failed to create application")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("application_id", application.ID).Int64("applicant_id", uid).Msg("application submitted")
	c.JSON(http.StatusCreated, applicationResponse(application))
}

// ListApplications lists applications where the caller is applicant or owner.
// GET /api/applications
func (h *ApplicationHandlers) ListApplications(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	applications, err := h.store.ListApplicationsForUser(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list applications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ApplicationResponse, 0, len(applications))
	for _, a := range applications {
		response = append(response, applicationResponse(a))
	}

	c.JSON(http.StatusOK, response)
}

// AcceptApplication handles an owner accepting an application.
// POST /api/applications/:id/accept
func (h *ApplicationHandlers) AcceptApplication(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	applicationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid application id"})
		return
	}

	var req AcceptApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid accept application request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start_date, expected YYYY-MM-DD"})
		return
	}

	application, err := h.store.GetApplicationByID(c.Request.Context(), applicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "application not found"})
			return
		}
		h.log.Error().Err(err).Int64("application_id", applicationID).Msg("failed to get application")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	property, err := h.store.GetPropertyByID(c.Request.Context(), application.PropertyID)
	if err != nil {
		h.log.Error().Err(err).Int64("property_id", application.PropertyID).Msg("failed to get property")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if property.OwnerID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the property owner can accept applications"})
		return
	}

	contract, err := h.store.AcceptApplication(c.Request.Context(), applicationID, startDate)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "application cannot be accepted"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "application not found"})
		default:
			h.log.Error().Err(err).Int64("application_id", applicationID).Msg("failed to accept application")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().
		Int64("application_id", applicationID).
		Int64("contract_id", contract.ID).
		Msg("application accepted")
	c.JSON(http.StatusCreated, contractResponse(contract))
}
