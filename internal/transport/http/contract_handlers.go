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

// ContractHandlers provides HTTP handlers for contract and payment endpoints.
type ContractHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewContractHandlers creates a new contract handlers instance.
func NewContractHandlers(st store.Store, logger *zerolog.Logger) *ContractHandlers {
	return &ContractHandlers{
		store: st,
		log:   logger,
	}
}

// ContractResponse represents a contract in API responses.
type ContractResponse struct {
	ID          int64  `json:"id"`
	PropertyID  int64  `json:"property_id"`
	OwnerID     int64  `json:"owner_id"`
	TenantID    int64  `json:"tenant_id"`
	MonthlyRent int64  `json:"monthly_rent"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
}

// AddPaymentRequest represents the record payment request body.
type AddPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Period string `json:"period" binding:"required"` // YYYY-MM
}

// PaymentResponse represents a rent payment in API responses.
type PaymentResponse struct {
	ID         int64  `json:"id"`
	ContractID int64  `json:"contract_id"`
	Amount     int64  `json:"amount"`
	Period     string `json:"period"`
	PaidAt     string `json:"paid_at"`
}

func contractResponse(c *store.Contract) ContractResponse {
	resp := ContractResponse{
		ID:          c.ID,
		PropertyID:  c.PropertyID,
		OwnerID:     c.OwnerID,
		TenantID:    c.TenantID,
		MonthlyRent: c.MonthlyRent,
		StartDate:   c.StartDate.Format("2006-01-02"),
	}
	if c.EndDate != nil {
		resp.EndDate = c.EndDate.Format("2006-01-02")
	}
	return resp
}

// loadContractForParty fetches a contract and checks the caller is a party to it.
func (h *ContractHandlers) loadContractForParty(c *gin.Context, uid int64) (*store.Contract, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid contract id"})
		return nil, false
	}

	contract, err := h.store.GetContractByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "contract not found"})
			return nil, false
		}
		h.log.Error().Err(err).Int64("contract_id", id).Msg("failed to get contract")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}

	if contract.OwnerID != uid && contract.TenantID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a party to this contract"})
		return nil, false
	}

	return contract, true
}

// ListContracts lists contracts where the caller is owner or tenant.
// GET /api/contracts
func (h *ContractHandlers) ListContracts(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	contracts, err := h.store.ListContractsForUser(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list contracts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ContractResponse, 0, len(contracts))
	for _, contract := range contracts {
		response = append(response, contractResponse(contract))
	}

	c.JSON(http.StatusOK, response)
}

// AddPayment records a rent payment under a contract.
// POST /api/contracts/:id/payments
func (h *ContractHandlers) AddPayment(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	contract, ok := h.loadContractForParty(c, uid)
	if !ok {
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid add payment request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid period, expected YYYY-MM"})
		return
	}

	payment := &store.RentPayment{
		ContractID: contract.ID,
		Amount:     req.Amount,
		Period:     req.Period,
		PaidAt:     time.Now().UTC(),
	}
	if err := h.store.AddRentPayment(c.Request.Context(), payment); err != nil {
		h.log.Error().Err(err).Int64("contract_id", contract.ID).Msg("failed to add payment")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("payment_id", payment.ID).Int64("contract_id", contract.ID).Msg("rent payment recorded")
	c.JSON(http.StatusCreated, PaymentResponse{
		ID:         payment.ID,
		ContractID: payment.ContractID,
		Amount:     payment.Amount,
		Period:     payment.Period,
		PaidAt:     payment.PaidAt.Format(time.RFC3339),
	})
}

// ListPayments lists payments under a contract.
// GET /api/contracts/:id/payments
func (h *ContractHandlers) ListPayments(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	contract, ok := h.loadContractForParty(c, uid)
	if !ok {
		return
	}

	payments, err := h.store.ListRentPayments(c.Request.Context(), contract.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("contract_id", contract.ID).Msg("failed to list payments")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, PaymentResponse{
			ID:         p.ID,
			ContractID: p.ContractID,
			Amount:     p.Amount,
			Period:     p.Period,
			PaidAt:     p.PaidAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
