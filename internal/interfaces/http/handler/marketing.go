package handler

import (
	"github.com/gin-gonic/gin"
	appmarketing "github.com/storefront/backend/internal/application/marketing"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// MarketingHandler handles the newsletter and the contact form
type MarketingHandler struct {
	BaseHandler
	newsletterService *appmarketing.NewsletterService
	contactService    *appmarketing.ContactService
}

// NewMarketingHandler creates a new MarketingHandler
func NewMarketingHandler(newsletterService *appmarketing.NewsletterService, contactService *appmarketing.ContactService) *MarketingHandler {
	return &MarketingHandler{
		newsletterService: newsletterService,
		contactService:    contactService,
	}
}

// NewsletterRequest names the address to (un)subscribe
type NewsletterRequest struct {
	Email string `json:"email" binding:"required,email,max=200"`
}

// ContactRequest is a contact form submission
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email,max=200"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// ListContactsRequest adds the status filter to the paging parameters
type ListContactsRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=new resolved"`
}

// Subscribe adds an address to the newsletter. Logged-in members earn the
// newsletter bonus once.
func (h *MarketingHandler) Subscribe(c *gin.Context) {
	var req NewsletterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.newsletterService.Subscribe(c.Request.Context(), appmarketing.SubscribeInput{
		Email:  req.Email,
		UserID: middleware.GetCustomerID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.AlreadySubscribed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// Unsubscribe removes an address from the newsletter
func (h *MarketingHandler) Unsubscribe(c *gin.Context) {
	var req NewsletterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.newsletterService.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SubmitContact stores a contact form message
func (h *MarketingHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.contactService.Submit(c.Request.Context(), appmarketing.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		UserID:  middleware.GetCustomerID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListContacts pages through contact requests (admin)
func (h *MarketingHandler) ListContacts(c *gin.Context) {
	var req ListContactsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter := req.Filter()
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}

	page, err := h.contactService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}
