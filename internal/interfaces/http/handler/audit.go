package handler

import (
	"github.com/gin-gonic/gin"
	appaudit "github.com/storefront/backend/internal/application/audit"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// AuditHandler exposes the audit log to administrators
type AuditHandler struct {
	BaseHandler
	auditService *appaudit.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *appaudit.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditRequest narrows the audit log
type ListAuditRequest struct {
	dto.ListRequest
	EntityID string `form:"entity_id" binding:"omitempty,max=64"`
	Action   string `form:"action" binding:"omitempty,max=64"`
}

// List pages through audit entries, newest first
func (h *AuditHandler) List(c *gin.Context) {
	var req ListAuditRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter := req.Filter()
	if req.EntityID != "" {
		filter.Filters["entity_id"] = req.EntityID
	}
	if req.Action != "" {
		filter.Filters["action"] = req.Action
	}

	page, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}
