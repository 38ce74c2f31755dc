package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedAppError(t *testing.T) {
	err := fmt.Errorf("create offer: %w", DuplicateActiveOffer())

	assert.True(t, Is(err, CodeDuplicateActiveOffer))
	assert.False(t, Is(err, CodeOfferLimitExceeded))
	assert.False(t, Is(fmt.Errorf("plain"), CodeInternal))
}

func TestTaxonomyStatuses(t *testing.T) {
	cases := map[*AppError]int{
		Validation("amount must be positive"): http.StatusBadRequest,
		Unauthorized("no session", nil):       http.StatusUnauthorized,
		Forbidden("not yours", nil):           http.StatusForbidden,
		NotFound("Offer", nil):                http.StatusNotFound,
		DuplicateActiveOffer():                http.StatusConflict,
		OfferLimitExceeded(5):                 http.StatusConflict,
		OfferNotPending("accepted"):           http.StatusConflict,
		ListingUnavailable():                  http.StatusConflict,
		InvalidOffer("wrong listing"):         http.StatusBadRequest,
		Provider("stripe down", nil):          http.StatusBadGateway,
		Internal("boom", nil):                 http.StatusInternalServerError,
	}

	for appErr, status := range cases {
		assert.Equal(t, status, appErr.Status, appErr.Code)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Provider("Failed to create payment intent", fmt.Errorf("timeout"))

	assert.Equal(t, "PROVIDER_ERROR: Failed to create payment intent: timeout", err.Error())
	assert.EqualError(t, NotFound("Listing", nil), "NOT_FOUND: Listing not found")
}
