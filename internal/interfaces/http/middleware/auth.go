package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Context keys set by the auth middleware
const (
	SessionKey    = "session"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a bearer token to a live session
type Authenticator struct {
	jwt      *auth.JWTService
	sessions identity.SessionStore
	logger   *zap.Logger
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(jwt *auth.JWTService, sessions identity.SessionStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{jwt: jwt, sessions: sessions, logger: logger.Named("auth")}
}

// Required rejects requests without a valid token whose session still exists.
// Sessions are looked up on every request and never extended.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, shared.CodeUnauthorized, "Authentication required")
			return
		}
		session, err := a.resolve(c, token)
		if err != nil {
			a.logger.Debug("Rejected bearer token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, msg := shared.CodeUnauthorized, "Authentication required"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, msg = dto.ErrCodeTokenExpired, "Token has expired"
			} else if errors.Is(err, shared.ErrSessionNotFound) {
				msg = shared.ErrSessionNotFound.Message
			}
			abortUnauthorized(c, code, msg)
			return
		}
		attach(c, session)
		c.Next()
	}
}

// Optional attaches the session when a valid token is present and lets
// anonymous requests through. Checkout and newsletter work for guests.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if session, err := a.resolve(c, token); err == nil {
				attach(c, session)
			}
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context, token string) (*identity.Session, error) {
	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	session, err := a.sessions.Get(c.Request.Context(), claims.SessionID())
	if err != nil {
		return nil, err
	}
	if session.SubjectID.String() != claims.Subject || session.Role != claims.Role {
		return nil, shared.ErrSessionNotFound
	}
	return session, nil
}

// RequireRole lets only sessions of the given role through
func RequireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if session == nil {
			abortUnauthorized(c, shared.CodeUnauthorized, "Authentication required")
			return
		}
		if session.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				shared.CodeForbidden, shared.ErrForbidden.Message, c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}

// GetSession returns the authenticated session or nil
func GetSession(c *gin.Context) *identity.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*identity.Session); ok {
			return s
		}
	}
	return nil
}

// GetSubjectID returns the authenticated user or admin id
func GetSubjectID(c *gin.Context) (uuid.UUID, bool) {
	s := GetSession(c)
	if s == nil {
		return uuid.Nil, false
	}
	return s.SubjectID, true
}

// GetCustomerID returns the member id for customer sessions only
func GetCustomerID(c *gin.Context) *uuid.UUID {
	s := GetSession(c)
	if s == nil || s.Role != identity.RoleCustomer {
		return nil
	}
	id := s.SubjectID
	return &id
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func attach(c *gin.Context, session *identity.Session) {
	c.Set(SessionKey, session)
	c.Set(UserIDKey, session.SubjectID.String())
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), session.SubjectID.String()))
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, c.GetString(RequestIDKey)))
}
