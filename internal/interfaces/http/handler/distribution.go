package handler

import (
	"github.com/gin-gonic/gin"
)

// DistributionHandler exposes how a demand's payments were distributed
type DistributionHandler struct {
	BaseHandler
	distribution DistributionUseCases
}

// NewDistributionHandler creates a new DistributionHandler
func NewDistributionHandler(distribution DistributionUseCases) *DistributionHandler {
	return &DistributionHandler{distribution: distribution}
}

// GetDistributionSummary godoc
//
//	@ID				getDistributionSummaryLedger
//	@Summary		Get the distribution summary of a demand
//	@Description	Per-component collected and balance amounts plus per-item breakdown
//	@Tags			distribution
//	@Produce		json
//	@Param			id	path		int	true	"Demand ID"
//	@Success		200	{object}	APIResponse[ledger.DistributionSummary]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/distribution-summary [get]
func (h *DistributionHandler) GetDistributionSummary(c *gin.Context) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.distribution.GetDistributionSummary(c.Request.Context(), demandID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ValidateIntegrity godoc
//
//	@ID				validateIntegrityLedger
//	@Summary		Check a demand's distribution integrity
//	@Description	Reconciles header totals, item totals and recorded payments. Mismatches are reported, never repaired.
//	@Tags			distribution
//	@Produce		json
//	@Param			id	path		int	true	"Demand ID"
//	@Success		200	{object}	APIResponse[ledger.IntegrityReport]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/integrity [get]
func (h *DistributionHandler) ValidateIntegrity(c *gin.Context) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.distribution.ValidateDistributionIntegrity(c.Request.Context(), demandID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
