package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type payload struct {
		CartID    int64 `json:"cart_id"`
		ProductID int64 `json:"product_id"`
	}

	event, err := NewEvent("grocery.cart.item_added", "7", "cart", "cart-service", payload{CartID: 7, ProductID: 1})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(event.EventID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "grocery.cart.item_added", event.EventType)
	assert.Equal(t, "7", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "cart-service", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Minute)

	var decoded payload
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, int64(7), decoded.CartID)
	assert.Equal(t, int64(1), decoded.ProductID)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	event, err := NewEvent("x", "1", "y", "z", make(chan int))

	assert.Nil(t, event)
	assert.Error(t, err)
}

func TestWithCorrelationID(t *testing.T) {
	event, err := NewEvent("grocery.product.created", "1", "product", "product-service", map[string]int{"id": 1})
	require.NoError(t, err)

	event.WithCorrelationID("req-123")
	assert.Equal(t, "req-123", event.CorrelationID)

	data, err := event.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"correlation_id":"req-123"`)
}
