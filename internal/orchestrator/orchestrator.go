// Package orchestrator fans a set of zone configurations out to
// independent supervisor loops and aggregates their results behind one
// lock.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/cjkrolak/thermostat-supervisor/internal/supervisor"

	log "github.com/sirupsen/logrus"
)

// ZoneEntry is one configured zone and whether it should be supervised.
type ZoneEntry struct {
	Config  supervisor.Config
	Enabled bool
}

// Site owns the configured zones for one supervisor process.
type Site struct {
	zones []ZoneEntry
	deps  supervisor.Deps
}

// New builds a Site from its zone entries and the shared collaborators
// every zone's Loop is constructed with.
func New(zones []ZoneEntry, deps supervisor.Deps) *Site {
	return &Site{zones: zones, deps: deps}
}

// DisplayAllZones returns one line per configured zone describing its
// enabled state, for startup banner logging.
func (s *Site) DisplayAllZones() []string {
	lines := make([]string, 0, len(s.zones))
	for _, z := range s.zones {
		state := "enabled"
		if !z.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("zone %s (%s): %s", z.Config.ZoneID, z.Config.ThermostatType, state))
	}
	return lines
}

// DisplayAllTemps does a one-shot read of every enabled zone's display
// temperature, without running the full supervision loop.
func (s *Site) DisplayAllTemps(ctx context.Context) map[string]float64 {
	out := make(map[string]float64)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, z := range s.zones {
		if !z.Enabled {
			continue
		}
		z := z
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := z.Config
			cfg.MeasurementLimit = 1
			l := supervisor.New(cfg, s.deps)
			res := l.Run(ctx)
			if len(res.Observations) == 0 {
				return
			}
			mu.Lock()
			out[z.Config.ZoneID] = res.Observations[len(res.Observations)-1].DisplayTemp
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// SuperviseAllZones launches one Loop per enabled zone, optionally in
// parallel, and returns every zone's aggregated Result once all loops
// have finished. measurementLimit overrides each zone's configured limit
// when non-zero, so a one-shot "survey all zones" run can be bounded
// uniformly.
func (s *Site) SuperviseAllZones(ctx context.Context, measurementLimit int, useParallel bool) map[string]supervisor.Result {
	results := make(map[string]supervisor.Result)
	var mu sync.Mutex

	run := func(z ZoneEntry) {
		cfg := z.Config
		if measurementLimit > 0 {
			cfg.MeasurementLimit = measurementLimit
		}
		l := supervisor.New(cfg, s.deps)
		res := l.Run(ctx)
		mu.Lock()
		results[cfg.ZoneID] = res
		mu.Unlock()
	}

	if useParallel {
		var wg sync.WaitGroup
		for _, z := range s.zones {
			if !z.Enabled {
				continue
			}
			z := z
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(z)
			}()
		}
		wg.Wait()
	} else {
		for _, z := range s.zones {
			if !z.Enabled {
				continue
			}
			run(z)
		}
	}
	return results
}

// Logger returns the logger shared by every zone's Loop, or logrus's
// standard logger when none was supplied in Deps.
func (s *Site) Logger() *log.Logger {
	if s.deps.Logger != nil {
		return s.deps.Logger
	}
	return log.StandardLogger()
}
