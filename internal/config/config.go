// Package config loads the supervisor's runtime settings from an
// optional .properties file and environment variables; an environment
// variable wins over the same key in the file. CLI flags are applied on
// top of the result by cmd/supervisor.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SupervisorConfig is the fully resolved set of runtime parameters one
// supervisor process runs with.
type SupervisorConfig struct {
	ThermostatType       string
	Zone                 string
	PollIntervalSec      int
	ReconnectIntervalSec int
	ToleranceDegrees     int
	TargetMode           string
	MeasurementLimit     int
	FlagAllDeviations    bool

	HTTPBind         string
	LogFile          string
	LogLevel         string
	KafkaBrokers     []string
	EventTopicPrefix string
}

const (
	DefaultPollIntervalSec      = 60
	DefaultReconnectIntervalSec = 24 * 60 * 60
	DefaultToleranceDegrees     = 2
	DefaultMeasurementLimit     = 0 // 0 means unlimited
)

// Load resolves a SupervisorConfig from the process environment, falling
// back to propertiesPath for any key not present as an environment
// variable. propertiesPath may be empty, in which case only the
// environment and defaults apply.
func Load(propertiesPath string) (*SupervisorConfig, error) {
	props := map[string]string{}
	if propertiesPath != "" {
		p, err := loadProperties(propertiesPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		props = p
	}

	lookup := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v, ok := props[key]; ok && v != "" {
			return v
		}
		return fallback
	}
	lookupInt := func(key string, fallback int) int {
		v := lookup(key, "")
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		return n
	}
	lookupBool := func(key string, fallback bool) bool {
		v := lookup(key, "")
		if v == "" {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}

	cfg := &SupervisorConfig{
		ThermostatType:       lookup("THERMOSTAT_TYPE", "emulator"),
		Zone:                 lookup("THERMOSTAT_ZONE", "0"),
		PollIntervalSec:      lookupInt("POLL_INTERVAL_SEC", DefaultPollIntervalSec),
		ReconnectIntervalSec: lookupInt("RECONNECT_INTERVAL_SEC", DefaultReconnectIntervalSec),
		ToleranceDegrees:     lookupInt("TOLERANCE_DEGREES", DefaultToleranceDegrees),
		TargetMode:           strings.ToUpper(lookup("TARGET_MODE", "")),
		MeasurementLimit:     lookupInt("MEASUREMENT_LIMIT", DefaultMeasurementLimit),
		FlagAllDeviations:    lookupBool("FLAG_ALL_DEVIATIONS", false),

		HTTPBind: lookup("HTTP_BIND", ":8080"),
		LogFile:  lookup("LOG_FILE", ""),
		LogLevel: lookup("LOG_LEVEL", "info"),
		KafkaBrokers: splitNonEmpty(lookup("KAFKA_BROKERS", "")),
		EventTopicPrefix: lookup("EVENTBUS_TOPIC_PREFIX", "thermostat.observations."),
	}
	return cfg, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadProperties parses a simple key=value properties file, ignoring
// blank lines and '#'-prefixed comments.
func loadProperties(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: scan %s: %w", path, err)
	}
	return out, nil
}
