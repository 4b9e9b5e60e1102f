package company

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())

	s.DefaultVATRate = decimal.NewFromInt(101)
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.Name = " "
	assert.Error(t, s.Validate())
}

func TestSettings_VATRateOrDefault(t *testing.T) {
	var nilSettings *Settings
	assert.True(t, nilSettings.VATRateOrDefault().Equal(decimal.NewFromInt(20)))

	s := DefaultSettings()
	s.DefaultVATRate = decimal.RequireFromString("5.5")
	assert.True(t, s.VATRateOrDefault().Equal(decimal.RequireFromString("5.5")))
}
