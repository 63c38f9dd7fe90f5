package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/demandsim/entity"
)

func TestParseMode(t *testing.T) {
	for _, m := range entity.AllModes {
		parsed, err := entity.ParseMode(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	m, err := entity.ParseMode(" CAR ")
	assert.NoError(t, err)
	assert.Equal(t, entity.ModeCar, m)
	_, err = entity.ParseMode("teleport")
	assert.Error(t, err)
	_, err = entity.ParseMode("unknown")
	assert.Error(t, err)
}

func TestActivityType(t *testing.T) {
	a, err := entity.ParseActivityType("private_visit")
	assert.NoError(t, err)
	assert.Equal(t, entity.ActivityPrivateVisit, a)
	assert.True(t, entity.ActivityHome.IsHome())
	assert.True(t, entity.ActivityWork.IsFixed())
	assert.True(t, entity.ActivityEducation.IsFixed())
	assert.False(t, entity.ActivityShopping.IsFixed())
}

func TestCapability(t *testing.T) {
	c := entity.CapabilityCanDrive | entity.CapabilityRideShareEligible
	assert.True(t, c.Has(entity.CapabilityCanDrive))
	assert.False(t, c.Has(entity.CapabilityUsesPublicTransport))
	assert.False(t, c.Has(entity.CapabilityCanDrive|entity.CapabilityUsesPublicTransport))
	assert.True(t, entity.ModeCarSharingFree.UsesCarAsDriver())
	assert.False(t, entity.ModePassenger.UsesCarAsDriver())
}
