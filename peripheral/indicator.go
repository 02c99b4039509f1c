package peripheral

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"throttle-fusion-core/fusion"
)

// Indicator is an in-memory fault indicator. It records the current state
// and how many times it was written.
type Indicator struct {
	mu     sync.Mutex
	active bool
	writes int
}

func NewIndicator() *Indicator {
	return &Indicator{}
}

func (i *Indicator) Set(active bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.active = active
	i.writes++
}

// Active reports the current indicator state.
func (i *Indicator) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Writes reports how many times Set was called.
func (i *Indicator) Writes() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writes
}

// GPIOIndicator drives a fault LED on a GPIO pin. Set only touches the pin
// when the requested level differs from the last one written.
type GPIOIndicator struct {
	mu     sync.Mutex
	pin    gpio.PinOut
	level  gpio.Level
	primed bool
	err    error
}

// NewGPIOIndicator initializes the host drivers and claims the named pin
// (e.g. "GPIO17"), driving it low.
func NewGPIOIndicator(pinName string) (*GPIOIndicator, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	return newGPIOIndicator(p)
}

func newGPIOIndicator(p gpio.PinOut) (*GPIOIndicator, error) {
	ind := &GPIOIndicator{pin: p}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s out: %w", p, err)
	}
	ind.level = gpio.Low
	ind.primed = true
	return ind, nil
}

func (g *GPIOIndicator) Set(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	level := gpio.Level(active)
	if g.primed && level == g.level {
		return
	}
	if err := g.pin.Out(level); err != nil {
		g.err = err
		return
	}
	g.level = level
	g.primed = true
}

// Err returns the last pin write error, if any. Set itself is
// fire-and-forget.
func (g *GPIOIndicator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

var (
	_ fusion.FaultSink = (*Indicator)(nil)
	_ fusion.FaultSink = (*GPIOIndicator)(nil)
)
