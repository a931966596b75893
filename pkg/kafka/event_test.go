package kafka

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"product_id": "p-1", "stock": 5}

	event, err := NewEvent("inventory.stock_adjusted", "p-1", "product", "storefront", payload)
	require.NoError(t, err)

	_, err = uuid.Parse(event.EventID)
	assert.NoError(t, err, "event ID should be a valid UUID")
	assert.Equal(t, "inventory.stock_adjusted", event.EventType)
	assert.Equal(t, "p-1", event.AggregateID)
	assert.Equal(t, "product", event.AggregateType)
	assert.False(t, event.Timestamp.IsZero())

	var decoded map[string]any
	require.NoError(t, event.UnmarshalData(&decoded))
	assert.Equal(t, "p-1", decoded["product_id"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("catalog.product.created", "p-1", "product", "storefront", make(chan int))
	assert.Error(t, err)
}

func TestEventMarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("catalog.product.deleted", "p-2", "product", "storefront", nil)
	require.NoError(t, err)
	event.WithCorrelationID("corr-42")

	data, err := event.Marshal()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-42", decoded.CorrelationID)
}
