package marketing

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletterSubscriber_Lifecycle(t *testing.T) {
	userID := uuid.New()
	s, err := NewNewsletterSubscriber(" Reader@Example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", s.Email)
	assert.True(t, s.IsActive())
	assert.False(t, s.ShouldAwardBonus(), "guests never earn the bonus")

	assert.False(t, s.Resubscribe(&userID), "already active")

	assert.True(t, s.Unsubscribe(time.Now()))
	assert.False(t, s.Unsubscribe(time.Now()))
	assert.False(t, s.IsActive())

	assert.True(t, s.Resubscribe(&userID))
	assert.Equal(t, &userID, s.UserID)
	assert.True(t, s.ShouldAwardBonus())

	s.BonusAwarded = true
	assert.False(t, s.ShouldAwardBonus())

	_, err = NewNewsletterSubscriber("nope", nil)
	assert.Error(t, err)
}

func TestNewContactRequest(t *testing.T) {
	req, err := NewContactRequest(" Ada ", "ADA@example.com", " Order question ", "Where is my parcel?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Order question", req.Subject)
	assert.Equal(t, ContactStatusNew, req.Status)

	_, err = NewContactRequest("", "ada@example.com", "", "hi", nil)
	assert.Error(t, err)
	_, err = NewContactRequest("Ada", "bad", "", "hi", nil)
	assert.Error(t, err)
	_, err = NewContactRequest("Ada", "ada@example.com", "", "   ", nil)
	assert.Error(t, err)
	_, err = NewContactRequest("Ada", "ada@example.com", "", strings.Repeat("x", 5001), nil)
	assert.Error(t, err)
}
