package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyTypeText(t *testing.T) {
	cases := []struct {
		orderID string
		text    string
		ok      bool
	}{
		{"V-Car-123", "Car-123", true},
		{"V-Car", "Car", true},
		{"V-Three-Wheeler", "Three-Wheeler", true},
		{"V-", "", false},
		{"ORD-01J0", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.orderID, func(t *testing.T) {
			text, ok := LegacyTypeText(tc.orderID)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.text, text)
		})
	}
}

func TestStatusIsFinal(t *testing.T) {
	assert.False(t, StatusPending.IsFinal())
	for _, s := range []Status{StatusSuccess, StatusFailed, StatusCancelled, StatusChargedback} {
		assert.True(t, s.IsFinal(), s)
	}
}
