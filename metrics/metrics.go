package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"throttle-fusion-core/fusion"
)

// Decision-cycle counters and gauges of the throttle loop.

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "cycles_total",
		Help:      "Total decision cycles completed",
	})

	CycleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "cycle_errors_total",
		Help:      "Total decision cycles refused (controller not initialized)",
	})

	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "decisions_total",
		Help:      "Arbiter decisions by kind and source channel",
	}, []string{"kind", "source"})

	FaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "faults_total",
		Help:      "Faults raised by kind",
	}, []string{"kind"})

	InitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "init_failures_total",
		Help:      "Peripheral initialization failures",
	})

	TorqueCommand = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "torque_command",
		Help:      "Last commanded torque",
	})

	TrustedAngle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "trusted_angle_degrees",
		Help:      "Last trusted pedal angle",
	})

	FaultActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "throttle",
		Subsystem: "fusion",
		Name:      "fault_active",
		Help:      "1 if the last cycle raised a fault",
	})

	CANFramesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "actuation",
		Name:      "frames_sent_total",
		Help:      "Command frames transmitted",
	})

	CANErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "throttle",
		Subsystem: "actuation",
		Name:      "errors_total",
		Help:      "Command frame encode or transmit errors",
	})
)

// ObserveCycle records one completed decision cycle.
func ObserveCycle(res fusion.CycleResult) {
	d := res.Decision
	CyclesTotal.Inc()

	source := d.Source.String()
	if d.Kind == fusion.DecisionSafeDefault {
		source = "none"
	}
	DecisionsTotal.WithLabelValues(d.Kind.String(), source).Inc()

	for _, kind := range d.Faults.Kinds() {
		FaultsTotal.WithLabelValues(kind).Inc()
	}

	TorqueCommand.Set(float64(res.Torque))
	TrustedAngle.Set(d.Angle)
	if d.FaultRaised() {
		FaultActive.Set(1)
	} else {
		FaultActive.Set(0)
	}
}

// ObserveInitFailure records a failed peripheral initialization.
func ObserveInitFailure() {
	InitFailures.Inc()
	FaultsTotal.WithLabelValues("init").Inc()
	FaultActive.Set(1)
}
