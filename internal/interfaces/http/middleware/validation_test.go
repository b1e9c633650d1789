package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Points   int64  `json:"points" binding:"omitempty,gte=0,ne=7"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleBindError(t *testing.T) {
	router := bindRouter()

	t.Run("field errors use json names", func(t *testing.T) {
		w := postJSON(router, `{"email":"nope","password":"short","points":7}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid email format", messages["email"])
		assert.Equal(t, "Must be at least 8 characters", messages["password"])
		assert.Equal(t, "Must not be 7", messages["points"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postJSON(router, `{"email":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("valid input passes", func(t *testing.T) {
		w := postJSON(router, `{"email":"ada@example.com","password":"longenough1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		limited := gin.New()
		limited.POST("/test", BodyLimit(16), func(c *gin.Context) {
			var req signupRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				HandleBindError(c, err)
				return
			}
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"email":"ada@example.com"}`))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
