// Package supervisor runs the per-zone control loop: connect, poll,
// detect schedule deviations, revert them, guard against unsafe mode
// transitions, and reconnect on a timer.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/alert"
	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
	"github.com/cjkrolak/thermostat-supervisor/internal/eventbus"
	"github.com/cjkrolak/thermostat-supervisor/internal/metrics"
	"github.com/cjkrolak/thermostat-supervisor/internal/policy"
	"github.com/cjkrolak/thermostat-supervisor/internal/registry"
	"github.com/cjkrolak/thermostat-supervisor/internal/retry"
	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"

	log "github.com/sirupsen/logrus"
)

// State is the per-zone loop's current lifecycle stage.
type State int

const (
	StateInit State = iota
	StateConnected
	StatePolling
	StateReconnect
	StateConnectionFailed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnected:
		return "connected"
	case StatePolling:
		return "polling"
	case StateReconnect:
		return "reconnect"
	case StateConnectionFailed:
		return "connection_failed"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config is the resolved set of runtime parameters one zone loop runs
// with, independent of how they were sourced (env, CLI flag, properties
// file).
type Config struct {
	ThermostatType       string
	ZoneID               string
	PollInterval         time.Duration
	ReconnectInterval    time.Duration
	ToleranceDegrees     int
	TargetMode           thermmode.Mode
	MeasurementLimit     int // 0 = unbounded
	FlagAllDeviations    bool
}

// Deps are the collaborators a Loop needs beyond its Config. Every field
// is optional except Alerts; a nil Metrics/Events is treated as disabled
// instrumentation rather than an error.
type Deps struct {
	Alerts  alert.Sink
	Dedup   *alert.Deduper
	Metrics *metrics.Registry
	Events  *eventbus.Publisher
	Logger  *log.Logger

	// OnObservation, if set, is called once per successful poll with the
	// Observation just produced. Used to feed a live status snapshot. It
	// runs inline on the loop's goroutine, so a slow callback delays the
	// loop; callers must keep it fast.
	OnObservation func(driver.Observation)
}

// Loop runs one zone's supervision from connection through however many
// reconnect epochs it takes to exhaust MeasurementLimit or hit a fatal
// error.
type Loop struct {
	cfg  Config
	deps Deps

	state      State
	targetMode thermmode.Mode
	epoch      int64
}

// New builds a Loop ready to Run.
func New(cfg Config, deps Deps) *Loop {
	if deps.Dedup == nil {
		deps.Dedup = alert.NewDeduper()
	}
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	return &Loop{cfg: cfg, deps: deps, state: StateInit, targetMode: cfg.TargetMode}
}

// Result is what Run reports once a zone's supervision ends.
type Result struct {
	ZoneID        string
	FinalState    State
	Observations  []driver.Observation
	Err           error
}

func (l *Loop) logf(format string, args ...any) {
	l.deps.Logger.Infof("zone %s: "+format, append([]any{l.cfg.ZoneID}, args...)...)
}

func (l *Loop) warnf(format string, args ...any) {
	l.deps.Logger.Warnf("zone %s: "+format, append([]any{l.cfg.ZoneID}, args...)...)
}

func (l *Loop) alertOnce(kind alert.Kind, subject, body string) {
	if !l.deps.Dedup.ShouldSend(alert.DedupKey{Kind: kind, Zone: l.cfg.ZoneID}, l.epoch) {
		return
	}
	code := l.deps.Alerts.SendAlert(kind.SubjectPrefix()+" "+subject, body)
	if l.deps.Metrics != nil {
		l.deps.Metrics.Alerts.WithLabelValues(l.cfg.ZoneID, string(kind)).Inc()
	}
	if code != alert.NoError {
		l.warnf("alert send failed: %s", code)
	}
}

// Run supervises the zone until it reaches StateDone or
// StateConnectionFailed, returning every Observation produced along the
// way.
func (l *Loop) Run(ctx context.Context) Result {
	var observations []driver.Observation
	measurement := 0

	for {
		l.epoch++
		l.state = StateConnected
		thermostat, err := registry.Build(ctx, l.cfg.ThermostatType, l.cfg.ZoneID)
		if err != nil {
			l.state = StateConnectionFailed
			l.alertOnce(alert.KindAuthError, "fatal connection error", err.Error())
			return Result{ZoneID: l.cfg.ZoneID, FinalState: l.state, Observations: observations, Err: err}
		}
		zone, err := thermostat.OpenZone(ctx, l.cfg.ZoneID)
		if err != nil {
			l.state = StateConnectionFailed
			l.alertOnce(alert.KindAuthError, "fatal connection error", err.Error())
			return Result{ZoneID: l.cfg.ZoneID, FinalState: l.state, Observations: observations, Err: err}
		}
		l.logf("connected (epoch %d), poll=%s reconnect=%s tolerance=%d", l.epoch, l.cfg.PollInterval, l.cfg.ReconnectInterval, l.cfg.ToleranceDegrees)

		epochStart := time.Now()
		var previousMode thermmode.Mode

	pollLoop:
		for {
			obs, pollErr := l.poll(ctx, zone, &previousMode)
			if pollErr != nil {
				kind, ok := driver.KindOf(pollErr)
				if l.deps.Metrics != nil && ok {
					l.deps.Metrics.DriverErrors.WithLabelValues(l.cfg.ZoneID, kind.String()).Inc()
				}
				if ok && kind == driver.AuthError {
					l.state = StateConnectionFailed
					l.alertOnce(alert.KindAuthError, "fatal authorization error", pollErr.Error())
					return Result{ZoneID: l.cfg.ZoneID, FinalState: l.state, Observations: observations, Err: pollErr}
				}
				l.warnf("poll failed, reconnecting: %v", pollErr)
				l.state = StateReconnect
				break pollLoop
			}
			observations = append(observations, obs)
			if l.deps.OnObservation != nil {
				l.deps.OnObservation(obs)
			}
			if l.deps.Events != nil {
				if err := l.deps.Events.Publish(ctx, obs); err != nil {
					l.warnf("event bus publish failed: %v", err)
				}
			}

			select {
			case <-ctx.Done():
				l.state = StateDone
				return Result{ZoneID: l.cfg.ZoneID, FinalState: l.state, Observations: observations, Err: ctx.Err()}
			case <-time.After(l.cfg.PollInterval):
			}

			measurement++
			if l.cfg.MeasurementLimit > 0 && measurement >= l.cfg.MeasurementLimit {
				l.state = StateDone
				return Result{ZoneID: l.cfg.ZoneID, FinalState: l.state, Observations: observations}
			}
			if time.Since(epochStart) > l.cfg.ReconnectInterval {
				l.logf("reconnect interval elapsed, forcing reconnection")
				l.state = StateReconnect
				break pollLoop
			}
		}
	}
}

// poll runs exactly one iteration of step 4(a)-(d) of the loop: refresh,
// mode correction, deviation detection and reversion.
func (l *Loop) poll(ctx context.Context, zone driver.Zone, previousMode *thermmode.Mode) (driver.Observation, error) {
	refreshResult := retry.ExecuteWithRetries(ctx, retry.Config{}, func(ctx context.Context) error {
		return zone.RefreshZoneInfo(ctx, false)
	})
	if refreshResult.Err != nil {
		return driver.Observation{}, refreshResult.Err
	}
	if refreshResult.Mitigated() {
		l.alertOnce(alert.TransientNetwork, "recovered after retry", fmt.Sprintf("zone %s refresh succeeded after %d attempts", l.cfg.ZoneID, refreshResult.Attempts))
	}

	if l.deps.Metrics != nil {
		l.deps.Metrics.Polls.WithLabelValues(l.cfg.ZoneID).Inc()
	}

	mode, err := zone.SystemMode()
	if err != nil {
		if kind, ok := driver.KindOf(err); ok && kind == driver.NotSupported {
			mode = thermmode.Unknown
		} else {
			return driver.Observation{}, err
		}
	}
	if mode != *previousMode {
		l.logf("mode changed: %s -> %s", *previousMode, mode)
		*previousMode = mode
	}
	if !mode.Valid() || mode == thermmode.Unknown {
		l.alertOnce(alert.ProtocolError, "unrecognized mode reported", fmt.Sprintf("zone %s reported an unrecognized system mode", l.cfg.ZoneID))
	}

	// Mode correction runs before deviation reversion per the tie-break
	// rule: if both fire in the same poll, the safe mode substitution
	// takes priority.
	if l.targetMode != "" && l.targetMode != mode && l.targetMode.Valid() {
		safe := policy.SafeTargetMode(mode, l.targetMode)
		if safe != l.targetMode {
			l.warnf("target mode %s unsafe from %s, substituting %s to protect equipment", l.targetMode, mode, safe)
		}
		if err := zone.SetMode(ctx, safe); err != nil {
			l.warnf("SetMode(%s) failed: %v", safe, err)
		}
	}

	displayTemp, err := zone.DisplayTemp()
	if err != nil {
		return driver.Observation{}, err
	}
	displayHumidity, humidityOK, err := zone.DisplayHumidity()
	if err != nil {
		if kind, ok := driver.KindOf(err); !ok || kind != driver.NotSupported {
			return driver.Observation{}, err
		}
	}

	holdActive, err := zone.IsInVacationHold()
	if err != nil {
		if kind, ok := driver.KindOf(err); !ok || kind != driver.NotSupported {
			return driver.Observation{}, err
		}
		holdActive = false
	}
	holdUntilMinutes, err := zone.TemporaryHoldUntilMinutes()
	if err != nil {
		if kind, ok := driver.KindOf(err); !ok || kind != driver.NotSupported {
			return driver.Observation{}, err
		}
		holdUntilMinutes = 0
	}
	holdTemporary := holdUntilMinutes > 0

	obs := driver.Observation{
		ZoneID:            l.cfg.ZoneID,
		EpochID:           l.epoch,
		Timestamp:         time.Now(),
		DisplayTemp:       displayTemp,
		DisplayHumidity:   displayHumidity,
		HumiditySupported: humidityOK,
		Mode:              mode,
		HoldActive:        holdActive,
		HoldTemporary:     holdTemporary,
	}
	obs.StatusMessage = fmt.Sprintf("zone %s: mode=%s temp=%.1f hold=%v temp_hold=%v", l.cfg.ZoneID, mode, displayTemp, holdActive, holdTemporary)

	if mode == thermmode.Unknown || !mode.Valid() {
		return obs, nil
	}

	currentSetpoint, scheduleSetpoint, err := l.setpoints(zone, mode)
	if err != nil {
		if kind, ok := driver.KindOf(err); ok && kind == driver.NotSupported {
			return obs, nil
		}
		return driver.Observation{}, err
	}
	obs.Setpoint = currentSetpoint
	obs.ScheduleSetpoint = scheduleSetpoint
	obs.StatusMessage = fmt.Sprintf("%s setpoint=%.1f schedule=%.1f", obs.StatusMessage, currentSetpoint, scheduleSetpoint)

	decision, evaluated := policy.Evaluate(mode, currentSetpoint, scheduleSetpoint, l.cfg.ToleranceDegrees, l.cfg.FlagAllDeviations)
	if !evaluated {
		return obs, nil
	}
	obs.TemperatureDeviated = decision.Deviated
	if decision.Deviated {
		obs.StatusMessage += " deviated=true"
	}

	if decision.GlobalLimitBreached {
		l.alertOnce(alert.PolicyViolation, fmt.Sprintf("schedule outside comfort limit (%s)", mode),
			fmt.Sprintf("zone %s scheduled %s setpoint %.1f is outside the advisory comfort limit", l.cfg.ZoneID, mode, scheduleSetpoint))
	}

	if decision.Deviated {
		if l.deps.Metrics != nil {
			l.deps.Metrics.Deviations.WithLabelValues(l.cfg.ZoneID, string(mode)).Inc()
		}
		revertResult := retry.ExecuteWithRetries(ctx, retry.Config{}, func(ctx context.Context) error {
			return policy.Revert(ctx, zone, mode, decision.RevertTo)
		})
		if revertResult.Err != nil {
			l.alertOnce(alert.Kind(fmt.Sprintf("%s_deviation", mode)), fmt.Sprintf("%s deviation, revert failed", mode),
				fmt.Sprintf("zone %s could not revert %s setpoint to %.1f: %v", l.cfg.ZoneID, mode, decision.RevertTo, revertResult.Err))
		} else {
			if l.deps.Metrics != nil {
				l.deps.Metrics.Reverts.WithLabelValues(l.cfg.ZoneID, string(mode)).Inc()
			}
			l.alertOnce(alert.Kind(fmt.Sprintf("%s_deviation", mode)), fmt.Sprintf("%s deviation alert", mode),
				fmt.Sprintf("zone %s: %s setpoint %.1f deviated from schedule %.1f, reverted", l.cfg.ZoneID, mode, currentSetpoint, scheduleSetpoint))
		}
	}

	return obs, nil
}

func (l *Loop) setpoints(zone driver.Zone, mode thermmode.Mode) (current, schedule float64, err error) {
	switch mode {
	case thermmode.Heat:
		if current, err = zone.HeatSetpointRaw(); err != nil {
			return 0, 0, err
		}
		if schedule, err = zone.ScheduleHeatSetpoint(); err != nil {
			return 0, 0, err
		}
	case thermmode.Cool, thermmode.Dry:
		if current, err = zone.CoolSetpointRaw(); err != nil {
			return 0, 0, err
		}
		if schedule, err = zone.ScheduleCoolSetpoint(); err != nil {
			return 0, 0, err
		}
	default:
		return 0, 0, driver.NotSupportedErr(fmt.Sprintf("setpoints(%s)", mode))
	}
	return current, schedule, nil
}
