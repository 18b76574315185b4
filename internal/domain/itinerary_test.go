package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

func TestItinerary_TypedAccessors(t *testing.T) {
	raw := json.RawMessage(`{"version":2,"summary":"5 days on the coast","days":[{},{},{},{},{}]}`)
	it := domain.NewItinerary(raw)

	assert.Equal(t, 2, it.Version())
	assert.Equal(t, "5 days on the coast", it.Summary())
	assert.Equal(t, 5, it.DayCount())
	assert.False(t, it.IsZero())
}

// TestItinerary_AbsentFieldsDefault covers differently-shaped payloads:
// older or partial plans fall back to defaults instead of failing.
func TestItinerary_AbsentFieldsDefault(t *testing.T) {
	it := domain.NewItinerary(json.RawMessage(`{"title":"legacy shape"}`))

	assert.Equal(t, 0, it.Version())
	assert.Equal(t, "", it.Summary())
	assert.Equal(t, 0, it.DayCount())
}

func TestItinerary_ZeroValue(t *testing.T) {
	var it domain.Itinerary

	assert.True(t, it.IsZero())
	assert.Equal(t, 0, it.Version())
	assert.Equal(t, "", it.Summary())
	assert.Nil(t, it.Raw())
}

func TestItinerary_MalformedPayloadDegrades(t *testing.T) {
	it := domain.NewItinerary(json.RawMessage(`not json`))

	assert.False(t, it.IsZero(), "payload bytes are kept even when unparseable")
	assert.Equal(t, "", it.Summary())
	assert.Equal(t, 0, it.DayCount())
}

func TestItinerary_JSONRoundTrip(t *testing.T) {
	raw := json.RawMessage(`{"version":1,"summary":"weekend"}`)

	out, err := json.Marshal(domain.NewItinerary(raw))
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))

	var back domain.Itinerary
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "weekend", back.Summary())

	var zero domain.Itinerary
	out, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
