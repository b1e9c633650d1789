package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/storefront/backend/internal/application/identity"
)

// ProfileHandler serves the logged-in member's profile
type ProfileHandler struct {
	BaseHandler
	userService *appidentity.UserService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userService *appidentity.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// UpdateProfileRequest replaces the editable profile fields
type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Phone   string `json:"phone" binding:"omitempty,max=30"`
	Address string `json:"address" binding:"omitempty,max=500"`
}

// ChangePasswordRequest is the password change body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// Get returns the profile with the points balance and tier
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Update changes name, phone and address
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, appidentity.UpdateProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// ChangePassword verifies the current password and stores the new one
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.SubjectID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), userID, appidentity.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
