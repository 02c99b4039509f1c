package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"throttle-fusion-core/config"
	"throttle-fusion-core/fusion"
	"throttle-fusion-core/metrics"
	"throttle-fusion-core/peripheral"
	"throttle-fusion-core/utils"
)

type RunnerConfig struct {
	Config *config.Config
	Scen   Scenario
	Once   bool

	// Writer replaces the SocketCAN connection when set.
	Writer utils.CANWriter
}

// Runner replays a scenario through simulated peripherals and the fusion
// controller, one decision cycle per tick.
type Runner struct {
	cfg   RunnerConfig
	log   *utils.Logger
	runID string

	adc   *peripheral.SimADC
	speed *peripheral.SimSpeedSensor
	fault fusion.FaultSink
	ctrl  *fusion.Controller

	pub      *utils.CommandPublisher // nil when CAN TX is disabled
	faultLog *rate.Limiter
}

// CycleSink receives every completed cycle; used by tests.
type CycleSink func(t float64, res fusion.CycleResult)

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger, fault fusion.FaultSink) (*Runner, error) {
	if fault == nil {
		fault = peripheral.NewIndicator()
	}

	r := &Runner{
		cfg:      cfg,
		log:      log,
		runID:    uuid.NewString(),
		adc:      peripheral.NewSimADC(),
		speed:    peripheral.NewSimSpeedSensor(cfg.Scen.Defaults.Speed),
		fault:    fault,
		faultLog: rate.NewLimiter(rate.Every(time.Second), 5),
	}

	r.applyInit(cfg.Scen.Init)
	r.applyStep(cfg.Scen.Defaults)

	ctrl, err := fusion.NewController(cfg.Config.Fusion, fusion.Peripherals{
		ADC:   r.adc,
		Speed: r.speed,
		Fault: r.fault,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	r.ctrl = ctrl

	if iface := cfg.Config.CAN.Interface; iface != "" || cfg.Writer != nil {
		cmap, err := utils.LoadCANMap(cfg.Config.CAN.MapPath)
		if err != nil {
			return nil, fmt.Errorf("load can map: %w", err)
		}
		writer := cfg.Writer
		if writer == nil {
			if writer, err = utils.NewSocketCANWriter(ctx, iface); err != nil {
				return nil, err
			}
		}
		pub, err := utils.NewCommandPublisher(cmap, cfg.Config.CAN.Frame, writer)
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
		r.pub = pub
	}

	return r, nil
}

func (r *Runner) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
}

func (r *Runner) applyInit(in InitOutcome) {
	r.adc.SimulateInit(fusion.Channel0, failIf(in.ADC0Fail))
	r.adc.SimulateInit(fusion.Channel1, failIf(in.ADC1Fail))
	r.speed.SimulateInit(failIf(in.SpeedFail))
}

func (r *Runner) applyStep(s SensorStep) {
	r.adc.SimulateValue(fusion.Channel0, s.Raw0, failIf(s.Read0Fail))
	r.adc.SimulateValue(fusion.Channel1, s.Raw1, failIf(s.Read1Fail))
	r.speed.SimulateSpeed(s.Speed)
}

func failIf(fail bool) error {
	if fail {
		return peripheral.ErrSimulated
	}
	return nil
}

// Run initializes the peripherals and runs cycles until the scenario ends
// or ctx is canceled. An initialization failure ends the run before any
// torque is computed.
func (r *Runner) Run(ctx context.Context, sink CycleSink) error {
	scen := r.cfg.Scen
	r.log.Info("Starting run=%s scenario=%s cycle_ms=%d duration=%.2fs can=%q",
		r.runID, scen.Meta.Name, scen.Timing.CycleMS, scen.Timing.DurationS, r.cfg.Config.CAN.Interface)

	if err := r.ctrl.Init(); err != nil {
		metrics.ObserveInitFailure()
		r.log.Critical("Initialization fails: ADC channel and/or speed sensor cannot be initialized: %v", err)
		return err
	}

	if r.cfg.Once {
		r.applyStep(scen.StepAt(0))
		return r.step(ctx, 0, sink)
	}

	start := time.Now()
	ticker := time.NewTicker(time.Duration(scen.Timing.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	endAfter := time.Duration(scen.Timing.DurationS * float64(time.Second))
	var cycles uint64

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping run")
			r.log.Info("Completed run=%s cycles=%d", r.runID, cycles)
			return ctx.Err()

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Completed run=%s cycles=%d", r.runID, cycles)
				return nil
			}

			t := elapsed.Seconds()
			r.applyStep(scen.StepAt(t))
			if err := r.step(ctx, t, sink); err != nil {
				return err
			}
			cycles++
		}
	}
}

func (r *Runner) step(ctx context.Context, t float64, sink CycleSink) error {
	res, err := r.ctrl.Cycle()
	if err != nil {
		metrics.CycleErrors.Inc()
		return fmt.Errorf("cycle at t=%.3f: %w", t, err)
	}
	return r.emit(ctx, t, res, sink)
}

// Evaluate decides one cycle from already-sampled values. Peripherals are
// not initialized and the scenario is not replayed.
func (r *Runner) Evaluate(ctx context.Context, in SensorStep, sink CycleSink) error {
	r.log.Info("Evaluating run=%s raw0=%d raw1=%d speed=%.2f", r.runID, in.Raw0, in.Raw1, in.Speed)
	return r.emit(ctx, 0, r.ctrl.Evaluate(in.Raw0, in.Raw1, in.Speed), sink)
}

func (r *Runner) emit(ctx context.Context, t float64, res fusion.CycleResult, sink CycleSink) error {
	metrics.ObserveCycle(res)

	d := res.Decision
	if d.FaultRaised() && r.faultLog.Allow() {
		r.log.Error("Fault at t=%.3f: %s (decision=%s angle=%.3f)", t, d.Faults, d.Kind, d.Angle)
	}
	r.log.Info("Required torque is %d", res.Torque)

	if r.pub != nil {
		frame, err := r.pub.Publish(ctx, res)
		if err != nil {
			metrics.CANErrors.Inc()
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.log.Critical("Transmit failed at t=%.3f: %v", t, err)
			return err
		}
		metrics.CANFramesSent.Inc()
		if r.log.Enabled(utils.TRACE) {
			r.log.Trace("TX t=%.3f id=0x%X len=%d data=% X", t, frame.ID, frame.Length, frame.Data[:frame.Length])
		}

		if wire, err := r.pub.Readback(frame); err != nil {
			r.log.Warn("TX t=%.3f: %v", t, err)
		} else if wire != float64(res.Torque) {
			r.log.Warn("Torque %d saturated to %.0f in %s", res.Torque, wire, r.pub.Frame().Name)
		}
	}

	if sink != nil {
		sink(t, res)
	}
	return nil
}
