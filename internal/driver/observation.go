package driver

import (
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/thermmode"
)

// Observation is emitted once per poll of one zone. The orchestrator
// aggregates Observations per zone; within one zone they are produced in
// strict poll order.
type Observation struct {
	ZoneID              string
	EpochID             int64
	Timestamp           time.Time
	DisplayTemp         float64
	DisplayHumidity     float64
	HumiditySupported   bool
	Mode                thermmode.Mode
	Setpoint            float64
	ScheduleSetpoint    float64
	HoldActive          bool
	HoldTemporary       bool
	TemperatureDeviated bool
	StatusMessage       string
}
