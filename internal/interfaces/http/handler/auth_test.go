package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func TestAuthHandler_Register(t *testing.T) {
	h := newHarness(t)

	t.Run("creates member and logs it in", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
			Email:    "Ada@Example.com",
			Password: "password123",
			Name:     "Ada",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var result appidentity.LoginResult
		resp := decode(t, w, &result)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, "ada@example.com", result.User.Email)
		assert.Equal(t, identity.RoleCustomer, result.User.Role)

		w = h.do(t, http.MethodGet, "/me/points", result.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var summary struct {
			Balance int64  `json:"balance"`
			Tier    string `json:"tier"`
		}
		decode(t, w, &summary)
		assert.Equal(t, int64(100), summary.Balance)
		assert.Equal(t, "MOON", summary.Tier)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
			Email:    "ada@example.com",
			Password: "password123",
			Name:     "Ada Again",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		resp := decode(t, w, nil)
		assert.Equal(t, shared.CodeAlreadyExists, resp.Error.Code)
	})

	t.Run("field validation lists the rejected fields", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"email":    "not-an-email",
			"password": "short",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w, nil)
		assert.Equal(t, shared.CodeValidation, resp.Error.Code)

		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password", "name"}, fields)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/register", "", "{")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w, nil).Error.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	h := newHarness(t)
	h.member(t, "grace@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "grace@example.com", Password: "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		var result appidentity.LoginResult
		decode(t, w, &result)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := h.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "grace@example.com", Password: "nope12345"})
		unknown := h.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "nope12345"})

		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, decode(t, wrong, nil).Error.Message, decode(t, unknown, nil).Error.Message)
	})

	t.Run("members cannot use the admin login", func(t *testing.T) {
		w := h.do(t, http.MethodPost, "/auth/admin/login", "", LoginRequest{Email: "grace@example.com", Password: "password123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newHarness(t)
	_, token := h.member(t, "linus@example.com")

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/me", token, nil).Code)

	w := h.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, shared.ErrSessionNotFound.Message, decode(t, w, nil).Error.Message)
}

func TestAuthHandler_RoleSeparation(t *testing.T) {
	h := newHarness(t)
	_, memberToken := h.member(t, "member@example.com")
	_, adminToken := h.admin(t)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/admin/orders", memberToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/me", adminToken, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/admin/orders", adminToken, nil).Code)
}
