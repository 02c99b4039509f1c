package fusion

// Arbiter resolves the two channel estimates into one trusted angle.
//
// Channel0 is the preferred source whenever it is usable. Channel1 is only
// used when Channel0 is not. Cross-channel disagreement is flagged but does
// not change which value is trusted. When neither channel is usable the
// configured safe angle is returned.
type Arbiter struct {
	cfg  Config
	sink FaultSink
	log  Logger
}

// NewArbiter creates an arbiter. A nil sink or logger is replaced by a no-op.
func NewArbiter(cfg Config, sink FaultSink, log Logger) Arbiter {
	if sink == nil {
		sink = nopSink{}
	}
	if log == nil {
		log = NopLogger{}
	}
	return Arbiter{cfg: cfg, sink: sink, log: log}
}

// InRange reports whether angle lies in the closed pedal range.
func (a Arbiter) InRange(angle float64) bool {
	return angle >= a.cfg.MinPedalAngle && angle <= a.cfg.MaxPedalAngle
}

// usable reports whether e can be trusted on its own, and the fault to
// record when it cannot.
func (a Arbiter) usable(e AngleEstimate) (bool, Fault) {
	if !e.Available {
		return false, readFault(e.Channel)
	}
	if _, known := a.cfg.calibration(e.Channel); !known || !a.InRange(e.Angle) {
		return false, rangeFault(e.Channel)
	}
	return true, 0
}

// Agree reports whether angle1 lies within the tolerance band around angle0.
func (a Arbiter) Agree(angle0, angle1 float64) bool {
	lo := (1 - a.cfg.ToleranceDeviation) * angle0
	hi := (1 + a.cfg.ToleranceDeviation) * angle0
	return !(angle1 < lo || angle1 > hi)
}

// Resolve decides the trusted angle for one cycle and raises the fault
// sink on any anomaly.
func (a Arbiter) Resolve(e0, e1 AngleEstimate) PedalAngleDecision {
	ok0, f0 := a.usable(e0)
	ok1, f1 := a.usable(e1)

	var d PedalAngleDecision
	switch {
	case !ok0 && !ok1:
		a.log.Error("Pedal angles unusable on both channels (%s=%.3f, %s=%.3f); using safe angle %.1f",
			e0.Channel, e0.Angle, e1.Channel, e1.Angle, a.cfg.SafeAngle)
		d = PedalAngleDecision{Kind: DecisionSafeDefault, Angle: a.cfg.SafeAngle, Faults: f0 | f1}

	case !ok0:
		a.log.Error("%s pedal angle %.3f unusable (range [%.0f, %.0f]); falling back to %s",
			e0.Channel, e0.Angle, a.cfg.MinPedalAngle, a.cfg.MaxPedalAngle, e1.Channel)
		d = PedalAngleDecision{Kind: DecisionFallback, Source: e1.Channel, Angle: e1.Angle, Faults: f0}

	case !ok1:
		a.log.Error("%s pedal angle %.3f unusable (range [%.0f, %.0f]); keeping %s",
			e1.Channel, e1.Angle, a.cfg.MinPedalAngle, a.cfg.MaxPedalAngle, e0.Channel)
		d = PedalAngleDecision{Kind: DecisionFallback, Source: e0.Channel, Angle: e0.Angle, Faults: f1}

	default:
		d = PedalAngleDecision{Kind: DecisionTrusted, Source: e0.Channel, Angle: e0.Angle}
		if !a.Agree(e0.Angle, e1.Angle) {
			a.log.Error("Pedal angles %.3f and %.3f differ by more than %.0f%%",
				e0.Angle, e1.Angle, a.cfg.ToleranceDeviation*100)
			d.Faults = FaultDisagreement
		}
	}

	if d.FaultRaised() {
		a.sink.Set(true)
	}
	return d
}
