// Command supervisor runs the thermostat supervision loop for one or
// more zones of a single thermostat type: connect, poll on an interval,
// detect and revert energy-wasting schedule deviations, guard against
// unsafe hot/cold mode transitions, and alert on persistent failures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cjkrolak/thermostat-supervisor/internal/alert"
	"github.com/cjkrolak/thermostat-supervisor/internal/config"
	"github.com/cjkrolak/thermostat-supervisor/internal/eventbus"
	"github.com/cjkrolak/thermostat-supervisor/internal/httpstatus"
	"github.com/cjkrolak/thermostat-supervisor/internal/metrics"
	"github.com/cjkrolak/thermostat-supervisor/internal/obslog"
	"github.com/cjkrolak/thermostat-supervisor/internal/orchestrator"
	"github.com/cjkrolak/thermostat-supervisor/internal/registry"
	"github.com/cjkrolak/thermostat-supervisor/internal/supervisor"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"

	// Blank-imported so every driver family registers itself via init()
	// before main resolves --thermostat-type against the registry.
	_ "github.com/cjkrolak/thermostat-supervisor/internal/emulator"
	_ "github.com/cjkrolak/thermostat-supervisor/internal/mqttzone"
	_ "github.com/cjkrolak/thermostat-supervisor/internal/sht31"
)

func main() {
	os.Exit(run())
}

func run() int {
	thermostatType := flag.String("thermostat-type", "", "thermostat family alias (e.g. emulator, sht31); overrides THERMOSTAT_TYPE")
	zoneFlag := flag.String("zone-id", "", "comma-separated zone identifiers to supervise; overrides THERMOSTAT_ZONE")
	pollIntervalSec := flag.Int("poll-interval-sec", 0, "seconds between polls; overrides POLL_INTERVAL_SEC")
	reconnectIntervalSec := flag.Int("reconnect-interval-sec", 0, "seconds before forcing a reconnect; overrides RECONNECT_INTERVAL_SEC")
	toleranceDegrees := flag.Int("tolerance-degrees", 0, "degrees of allowed setpoint drift from schedule; overrides TOLERANCE_DEGREES")
	targetMode := flag.String("target-mode", "", "mode to hold the thermostat in, guarded against unsafe transitions; overrides TARGET_MODE")
	measurementLimit := flag.Int("measurement-limit", 0, "stop after this many polls per zone; overrides MEASUREMENT_LIMIT, where 0 means run indefinitely")
	propertiesPath := flag.String("properties", "", "path to a .properties file of defaults, lowest precedence")
	useParallel := flag.Bool("parallel", true, "supervise configured zones concurrently rather than sequentially")
	flag.Parse()

	cfg, err := config.Load(*propertiesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supervisor: load config: %v\n", err)
		return 1
	}
	applyFlagOverrides(cfg, *thermostatType, *pollIntervalSec, *reconnectIntervalSec, *toleranceDegrees, *targetMode, *measurementLimit)

	logger, err := obslog.New(cfg.LogFile, obslog.DefaultMaxFileSizeBytes, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supervisor: init logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Info("thermostat supervisor starting")

	if _, err := registry.Lookup(cfg.ThermostatType); err != nil {
		logger.Errorf("unknown thermostat type %q (supported: %s)", cfg.ThermostatType, strings.Join(registry.SupportedThermostats(), ", "))
		return 1
	}

	sink, sinkCode := alert.NewSMTPSinkFromEnv()
	var alertSink alert.Sink
	if sinkCode != alert.NoError {
		logger.Warnf("email alert sink unavailable (%s), alerts will only be logged", sinkCode)
		alertSink = loggingOnlySink{logger: logger}
	} else {
		alertSink = sink
	}

	promReg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(promReg)
	events := eventbus.New(cfg.KafkaBrokers, cfg.EventTopicPrefix)
	if events != nil {
		defer events.Close()
	}

	statusSrv := httpstatus.New(cfg.HTTPBind, promReg, logger.Logger)

	deps := supervisor.Deps{
		Alerts:        alertSink,
		Dedup:         alert.NewDeduper(),
		Metrics:       metricsReg,
		Events:        events,
		Logger:        logger.Logger,
		OnObservation: statusSrv.RecordObservation,
	}

	zones := buildZoneEntries(cfg, zoneIDs(*zoneFlag, cfg.Zone))
	site := orchestrator.New(zones, deps)
	for _, line := range site.DisplayAllZones() {
		logger.Info(line)
	}
	go func() {
		if err := statusSrv.Start(); err != nil {
			logger.Errorf("status server stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	resultsCh := make(chan map[string]supervisor.Result, 1)
	go func() {
		resultsCh <- site.SuperviseAllZones(ctx, cfg.MeasurementLimit, *useParallel)
	}()

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Infof("shutdown signal received: %s", sig)
		cancel()
		<-resultsCh
	case results := <-resultsCh:
		exitCode = summarize(logger.Logger, results)
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := statusSrv.Stop(shCtx); err != nil {
		logger.Errorf("status server graceful stop failed: %v", err)
	}

	logger.Info("thermostat supervisor exited")
	return exitCode
}

// applyFlagOverrides lets explicitly-set CLI flags win over the
// environment/properties-resolved config, matching the config
// package's env-then-file precedence with flags sitting one tier above
// both.
func applyFlagOverrides(cfg *config.SupervisorConfig, thermostatType string, pollIntervalSec, reconnectIntervalSec, toleranceDegrees int, targetMode string, measurementLimit int) {
	if thermostatType != "" {
		cfg.ThermostatType = thermostatType
	}
	if pollIntervalSec > 0 {
		cfg.PollIntervalSec = pollIntervalSec
	}
	if reconnectIntervalSec > 0 {
		cfg.ReconnectIntervalSec = reconnectIntervalSec
	}
	if toleranceDegrees > 0 {
		cfg.ToleranceDegrees = toleranceDegrees
	}
	if targetMode != "" {
		cfg.TargetMode = strings.ToUpper(targetMode)
	}
	if measurementLimit > 0 {
		cfg.MeasurementLimit = measurementLimit
	}
}

// zoneIDs resolves the set of zones to supervise: an explicit
// comma-separated flag value wins, otherwise the single zone the config
// resolved falls back to.
func zoneIDs(flagValue, configZone string) []string {
	if flagValue == "" {
		return []string{configZone}
	}
	var out []string
	for _, z := range strings.Split(flagValue, ",") {
		z = strings.TrimSpace(z)
		if z != "" {
			out = append(out, z)
		}
	}
	return out
}

func buildZoneEntries(cfg *config.SupervisorConfig, zones []string) []orchestrator.ZoneEntry {
	entries := make([]orchestrator.ZoneEntry, 0, len(zones))
	for _, zoneID := range zones {
		entries = append(entries, orchestrator.ZoneEntry{
			Enabled: true,
			Config: supervisor.Config{
				ThermostatType:    cfg.ThermostatType,
				ZoneID:            zoneID,
				PollInterval:      time.Duration(cfg.PollIntervalSec) * time.Second,
				ReconnectInterval: time.Duration(cfg.ReconnectIntervalSec) * time.Second,
				ToleranceDegrees:  cfg.ToleranceDegrees,
				TargetMode:        thermmode.Mode(strings.ToLower(cfg.TargetMode)),
				MeasurementLimit:  cfg.MeasurementLimit,
				FlagAllDeviations: cfg.FlagAllDeviations,
			},
		})
	}
	return entries
}

func summarize(logger interface{ Errorf(string, ...any) }, results map[string]supervisor.Result) int {
	exitCode := 0
	for zoneID, res := range results {
		if res.Err != nil {
			logger.Errorf("zone %s ended with error (state=%s): %v", zoneID, res.FinalState, res.Err)
			exitCode = 1
		}
	}
	return exitCode
}

// loggingOnlySink is the fallback alert.Sink used when no SMTP
// credentials are configured — alerts are logged rather than dropped
// silently.
type loggingOnlySink struct {
	logger *obslog.Logger
}

func (s loggingOnlySink) SendAlert(subject, body string) alert.ErrorCode {
	s.logger.Warnf("ALERT %s: %s", subject, body)
	return alert.NoError
}
