package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"throttle-fusion-core/config"
	"throttle-fusion-core/fusion"
	"throttle-fusion-core/peripheral"
	"throttle-fusion-core/utils"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on success, 1 on a startup or run
// error, 2 when peripheral initialization failed.
func run() int {
	var (
		cfgPath  = flag.String("config", "config/default.yaml", "Path to YAML config (empty for built-in defaults)")
		scenPath = flag.String("scenario", "", "Scenario JSON file (empty for the reference scenario)")
		iface    = flag.String("iface", "", "SocketCAN interface name (overrides config)")
		logLevel = flag.String("log", "", "trace|debug|info|warn|error|critical (overrides config)")
		once     = flag.Bool("once", false, "Run a single decision cycle and exit")
		eval     = flag.String("eval", "", "Decide one cycle from raw0,raw1,speed and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		return 1
	}
	if *iface != "" {
		cfg.CAN.Interface = *iface
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	var evalStep *SensorStep
	if *eval != "" {
		step, err := ParseSensorStep(*eval)
		if err != nil {
			_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
			return 1
		}
		evalStep = &step
	}

	log, err := utils.NewFileLogger(cfg.Log.File, utils.ParseLevel(cfg.Log.Level), cfg.Log.Stdout, utils.RotationOptions{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + cfg.Log.File + ": " + err.Error() + "\n")
		return 1
	}
	defer log.Close()

	scen := DefaultScenario()
	if *scenPath != "" {
		scen, err = LoadScenario(*scenPath)
		if err != nil {
			log.Critical("Load scenario failed: %v", err)
			return 1
		}
	}

	var fault fusion.FaultSink = peripheral.NewIndicator()
	if pin := cfg.Indicator.GPIOPin; pin != "" {
		gi, err := peripheral.NewGPIOIndicator(pin)
		if err != nil {
			log.Critical("Fault indicator on %s: %v", pin, err)
			return 1
		}
		fault = gi
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, RunnerConfig{Config: cfg, Scen: scen, Once: *once}, log, fault)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return 1
	}
	defer runner.Close()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	if addr := cfg.Metrics.Listen; addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("Metrics listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// SIGHUP re-reads the log level, unless -log pinned it.
	if *logLevel == "" && *cfgPath != "" {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		g.Go(func() error {
			watchLogLevel(runCtx, hup, *cfgPath, log)
			return nil
		})
	}

	g.Go(func() error {
		defer cancelRun()
		if evalStep != nil {
			return runner.Evaluate(runCtx, *evalStep, nil)
		}
		return runner.Run(runCtx, nil)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, fusion.ErrInit) {
			// fault indicator already raised; no torque was emitted
			return 2
		}
		log.Critical("Run failed: %v", err)
		return 1
	}
	return 0
}
