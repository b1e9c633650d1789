package handler

import (
	"github.com/gin-gonic/gin"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// PointsHandler serves balances, history, redemption quotes and admin adjustments
type PointsHandler struct {
	BaseHandler
	pointsService *apployalty.PointsService
}

// NewPointsHandler creates a new PointsHandler
func NewPointsHandler(pointsService *apployalty.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// PreviewRequest asks what a subtotal could redeem. Points omitted means the maximum.
type PreviewRequest struct {
	Subtotal int64  `json:"subtotal" binding:"gte=0"`
	Points   *int64 `json:"points" binding:"omitempty,gte=0"`
}

// AdjustRequest is a manual points correction
type AdjustRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required,max=255"`
}

// Summary returns the member's balance, reservations and tier progress
func (h *PointsHandler) Summary(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}

	summary, err := h.pointsService.Summary(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// History pages through the member's ledger, newest first
func (h *PointsHandler) History(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	page, err := h.pointsService.History(c.Request.Context(), userID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Preview quotes a redemption. Guests are quoted with zero available points.
func (h *PointsHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	quote, err := h.pointsService.Preview(c.Request.Context(), apployalty.PreviewInput{
		UserID:   middleware.GetCustomerID(c),
		Subtotal: req.Subtotal,
		Points:   req.Points,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Adjust credits or debits a member's points on behalf of an administrator
func (h *PointsHandler) Adjust(c *gin.Context) {
	adminID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	userID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.pointsService.Adjust(c.Request.Context(), apployalty.AdjustInput{
		AdminID: adminID,
		UserID:  userID,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
