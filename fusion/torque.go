package fusion

// TorqueModel is the fitted linear regression from pedal angle and
// vehicle speed to drive torque.
type TorqueModel struct {
	coef TorqueCoefficients
}

func NewTorqueModel(cfg Config) TorqueModel {
	return TorqueModel{coef: cfg.Torque}
}

// Raw returns the unrounded regression value. The float64 conversions
// block fused multiply-add.
func (m TorqueModel) Raw(angle, speed float64) float64 {
	return m.coef.Intercept + float64(m.coef.AngleGain*angle) + float64(m.coef.SpeedGain*speed)
}

// Compute returns the torque command, truncated toward zero. The result is
// not clamped.
func (m TorqueModel) Compute(angle, speed float64) TorqueCommand {
	return TorqueCommand(int(m.Raw(angle, speed)))
}
