package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CheckoutHandler opens hosted checkouts for members and guests
type CheckoutHandler struct {
	BaseHandler
	checkoutService *apporder.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *apporder.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CheckoutItemRequest is one cart line
type CheckoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1,max=99"`
}

// CheckoutRequest is the cart submitted for payment. Email is required for
// guests and ignored for members. Points omitted means "as many as allowed".
type CheckoutRequest struct {
	Email  string                `json:"email" binding:"omitempty,email,max=200"`
	Items  []CheckoutItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	Points *int64                `json:"points" binding:"omitempty,gte=0"`
}

// Create prices the cart, reserves points and returns the hosted checkout URL
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID := middleware.GetCustomerID(c)
	if userID == nil && req.Email == "" {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(getRequestID(c), []dto.ValidationDetail{
			{Field: "email", Message: "email is required for guest checkout"},
		}))
		return
	}

	items := make([]apporder.CheckoutItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, apporder.CheckoutItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	result, err := h.checkoutService.CreateCheckout(c.Request.Context(), apporder.CheckoutInput{
		UserID:          userID,
		Email:           req.Email,
		Items:           items,
		RequestedPoints: req.Points,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
