package handler

import (
	"github.com/gin-gonic/gin"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderHandler serves the member's order history and the admin order desk
type OrderHandler struct {
	BaseHandler
	orderService *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *apporder.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// ListOrdersRequest adds the status filter to the paging parameters
type ListOrdersRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled refunded"`
}

// UpdateStatusRequest moves an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled refunded"`
}

// ListMine pages through the caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	page, err := h.orderService.ListForUser(c.Request.Context(), userID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, &page)
}

// GetMine returns one of the caller's orders
func (h *OrderHandler) GetMine(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.orderService.GetForUser(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List pages through every order (admin)
func (h *OrderHandler) List(c *gin.Context) {
	var req ListOrdersRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter := req.Filter()
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}

	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, &page)
}

// Get returns any order (admin)
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatus changes an order's status. Cancelling or refunding a paid
// member order reverses its points.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.ChangeStatus(c.Request.Context(), adminID, orderID, order.Status(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
