package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCarbonSavings(t *testing.T) {
	cases := []struct {
		name    string
		listing Listing
		want    float64
	}{
		{"explicit weight", Listing{Material: "Steel", WeightKg: 100}, 155},
		{"dimensions times quantity", Listing{Material: "timber", LengthCm: 200, WidthCm: 10, HeightCm: 5, Quantity: 10}, 22.5},
		{"unknown material uses fallback", Listing{Material: "reclaimed oddments", WeightKg: 10}, 5},
		{"nothing known", Listing{Material: "brick"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, EstimateCarbonSavings(&tc.listing), 0.001)
		})
	}
}

func TestKnownMaterial(t *testing.T) {
	assert.True(t, KnownMaterial(" Plasterboard "))
	assert.False(t, KnownMaterial("unobtainium"))
}

func TestCanTransitionOrder(t *testing.T) {
	assert.True(t, CanTransitionOrder(OrderStatusPaid, OrderStatusDispatched))
	assert.True(t, CanTransitionOrder(OrderStatusReadyForCollection, OrderStatusCompleted))
	assert.True(t, CanTransitionOrder(OrderStatusDisputed, OrderStatusRefunded))
	assert.False(t, CanTransitionOrder(OrderStatusPaid, OrderStatusCompleted))
	assert.False(t, CanTransitionOrder(OrderStatusCompleted, OrderStatusDisputed))
	assert.False(t, CanTransitionOrder(OrderStatusRefunded, OrderStatusPaid))
}
