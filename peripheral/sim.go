package peripheral

import (
	"errors"
	"fmt"
	"sync"

	"throttle-fusion-core/fusion"
)

// ErrSimulated is the error returned by simulated peripherals that were
// told to fail without a specific cause.
var ErrSimulated = errors.New("simulated peripheral failure")

type simChannel struct {
	value   uint16
	readErr error
	initErr error
}

// SimADC is a two-channel ADC whose outputs are set by the caller.
type SimADC struct {
	mu       sync.Mutex
	channels map[fusion.ChannelID]*simChannel
}

// NewSimADC creates a simulated ADC with both pedal channels reading 0.
func NewSimADC() *SimADC {
	return &SimADC{
		channels: map[fusion.ChannelID]*simChannel{
			fusion.Channel0: {},
			fusion.Channel1: {},
		},
	}
}

// SimulateValue sets what the next Read of ch returns.
func (a *SimADC) SimulateValue(ch fusion.ChannelID, value uint16, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := a.channel(ch)
	c.value = value
	c.readErr = err
}

// SimulateInit sets what Init of ch returns.
func (a *SimADC) SimulateInit(ch fusion.ChannelID, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channel(ch).initErr = err
}

func (a *SimADC) channel(ch fusion.ChannelID) *simChannel {
	c, ok := a.channels[ch]
	if !ok {
		c = &simChannel{}
		a.channels[ch] = c
	}
	return c
}

func (a *SimADC) Init(ch fusion.ChannelID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.channels[ch]
	if !ok {
		return fmt.Errorf("init %s: no such channel", ch)
	}
	return c.initErr
}

func (a *SimADC) Read(ch fusion.ChannelID) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.channels[ch]
	if !ok {
		return 0, fmt.Errorf("read %s: no such channel", ch)
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	return c.value, nil
}

// SimSpeedSensor reports a caller-set vehicle speed.
type SimSpeedSensor struct {
	mu      sync.Mutex
	speed   float64
	initErr error
}

func NewSimSpeedSensor(speed float64) *SimSpeedSensor {
	return &SimSpeedSensor{speed: speed}
}

func (s *SimSpeedSensor) SimulateSpeed(speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
}

func (s *SimSpeedSensor) SimulateInit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initErr = err
}

func (s *SimSpeedSensor) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

func (s *SimSpeedSensor) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

var (
	_ fusion.ADC         = (*SimADC)(nil)
	_ fusion.SpeedSource = (*SimSpeedSensor)(nil)
)
