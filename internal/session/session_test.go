package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_GeneratesCustomerID(t *testing.T) {
	a := New(Options{})
	b := New(Options{})

	_, err := uuid.Parse(a.CustomerID)
	require.NoError(t, err)
	assert.NotEqual(t, a.CustomerID, b.CustomerID)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.Collections)
}

func TestNew_SessionsDoNotShareState(t *testing.T) {
	a := New(Options{CacheTTL: time.Minute, CustomerID: "fixed"})
	b := New(Options{CacheTTL: time.Minute})

	assert.Equal(t, "fixed", a.CustomerID)
	a.Collections.AddRecent(item("x"))
	a.Cache.Put("clip:trending", nil)

	assert.Empty(t, b.Collections.Recent())
	assert.Equal(t, 0, b.Cache.Len())
}
