package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Title string          `json:"title" binding:"required,min=5"`
	Price decimal.Decimal `json:"price" binding:"required,gt=0"`
	Fuel  string          `json:"fuel_type" binding:"omitempty,oneof=petrol diesel"`
}

func TestRegister_UsesJSONNamesAndDecimalValues(t *testing.T) {
	require.NoError(t, Register())

	err := binding.Validator.ValidateStruct(&listing{Title: "Car", Price: decimal.Zero, Fuel: "steam"})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, "title must be at least 5 characters long", fields["title"])
	assert.Equal(t, "price is required", fields["price"])
	assert.Equal(t, "fuel_type must be one of [petrol diesel]", fields["fuel_type"])
}

func TestRegister_AcceptsPositiveDecimal(t *testing.T) {
	require.NoError(t, Register())

	err := binding.Validator.ValidateStruct(&listing{Title: "Toyota Axio", Price: decimal.RequireFromString("5500000")})
	assert.NoError(t, err)
}

func TestFields_IgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Fields(assert.AnError))
}
