package fusion

import (
	"errors"
	"fmt"
)

var (
	// ErrInit is wrapped when any peripheral fails to initialize.
	ErrInit = errors.New("peripheral initialization failed")
	// ErrNotInitialized is returned by Cycle before a successful Init.
	ErrNotInitialized = errors.New("controller not initialized")
)

// Peripherals bundles the collaborators the controller drives.
type Peripherals struct {
	ADC   ADC
	Speed SpeedSource
	Fault FaultSink
}

// Controller runs decision cycles: two raw channels and a speed sample in,
// one fault-annotated torque command out. Cycles share no state; the only
// state kept is whether Init succeeded.
type Controller struct {
	conv  Converter
	arb   Arbiter
	model TorqueModel

	adc   ADC
	speed SpeedSource
	sink  FaultSink
	log   Logger

	ready bool
}

// NewController validates cfg and wires the peripherals.
func NewController(cfg Config, p Peripherals, log Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.ADC == nil || p.Speed == nil {
		return nil, errors.New("controller needs an ADC and a speed source")
	}
	if p.Fault == nil {
		p.Fault = nopSink{}
	}
	if log == nil {
		log = NopLogger{}
	}
	return &Controller{
		conv:  NewConverter(cfg),
		arb:   NewArbiter(cfg, p.Fault, log),
		model: NewTorqueModel(cfg),
		adc:   p.ADC,
		speed: p.Speed,
		sink:  p.Fault,
		log:   log,
	}, nil
}

// Init initializes both ADC channels and the speed source. All three are
// attempted; if any fails the fault sink is raised and the controller
// refuses to run cycles.
func (c *Controller) Init() error {
	var errs []error
	for _, ch := range []ChannelID{Channel0, Channel1} {
		if err := c.adc.Init(ch); err != nil {
			errs = append(errs, fmt.Errorf("adc %s: %w", ch, err))
		}
	}
	if err := c.speed.Init(); err != nil {
		errs = append(errs, fmt.Errorf("speed sensor: %w", err))
	}

	if len(errs) > 0 {
		c.ready = false
		c.log.Error("Initialization failed: %v", errors.Join(errs...))
		c.sink.Set(true)
		return fmt.Errorf("%w: %w", ErrInit, errors.Join(errs...))
	}

	c.ready = true
	c.log.Info("Peripherals initialized")
	return nil
}

// Ready reports whether Init succeeded.
func (c *Controller) Ready() bool {
	return c.ready
}

// Cycle runs one decision cycle. A failed channel read is not an error:
// the channel is treated as unusable and the fault is carried in the
// decision.
func (c *Controller) Cycle() (CycleResult, error) {
	if !c.ready {
		c.sink.Set(true)
		return CycleResult{}, ErrNotInitialized
	}

	var res CycleResult
	for i, ch := range []ChannelID{Channel0, Channel1} {
		res.Readings[i].Channel = ch
		raw, err := c.adc.Read(ch)
		if err != nil {
			c.log.Error("Failed to read %s: %v", ch, err)
			c.sink.Set(true)
			res.Estimates[i] = Unavailable(ch)
			continue
		}
		res.Readings[i].Raw = raw
		res.Estimates[i] = c.conv.Estimate(res.Readings[i])
	}

	res.Decision = c.arb.Resolve(res.Estimates[0], res.Estimates[1])
	res.Speed = c.speed.Speed()
	res.Torque = c.model.Compute(res.Decision.Angle, res.Speed)

	c.log.Debug("cycle angle0=%.3f angle1=%.3f decision=%s source=%s angle=%.3f speed=%.2f torque=%d faults=%s",
		res.Estimates[0].Angle, res.Estimates[1].Angle, res.Decision.Kind, res.Decision.Source,
		res.Decision.Angle, res.Speed, res.Torque, res.Decision.Faults)
	return res, nil
}

// Evaluate runs the converter, arbiter and torque model on values that
// were already sampled. It touches no peripheral other than the fault sink.
func (c *Controller) Evaluate(raw0, raw1 uint16, speed float64) CycleResult {
	res := CycleResult{
		Readings: [2]ChannelReading{{Channel: Channel0, Raw: raw0}, {Channel: Channel1, Raw: raw1}},
		Speed:    speed,
	}
	res.Estimates[0] = c.conv.Estimate(res.Readings[0])
	res.Estimates[1] = c.conv.Estimate(res.Readings[1])
	res.Decision = c.arb.Resolve(res.Estimates[0], res.Estimates[1])
	res.Torque = c.model.Compute(res.Decision.Angle, speed)
	return res
}
