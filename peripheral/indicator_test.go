package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestIndicator_SetIsIdempotent(t *testing.T) {
	t.Parallel()

	once := NewIndicator()
	once.Set(true)

	many := NewIndicator()
	many.Set(true)
	many.Set(true)
	many.Set(true)

	assert.Equal(t, once.Active(), many.Active())
	assert.True(t, many.Active())
	assert.Equal(t, 3, many.Writes())
}

func TestGPIOIndicator_DrivesPin(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "GPIO17", L: gpio.High}
	ind, err := newGPIOIndicator(pin)
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, pin.Read(), "indicator starts off")

	ind.Set(true)
	assert.Equal(t, gpio.High, pin.Read())
	ind.Set(true)
	assert.Equal(t, gpio.High, pin.Read())

	ind.Set(false)
	assert.Equal(t, gpio.Low, pin.Read())
	assert.NoError(t, ind.Err())
}
