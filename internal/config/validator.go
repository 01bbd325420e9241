package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidTransports returns the list of valid MCP transports
func ValidTransports() []string {
	return []string{"stdio", "http", "streamable-http"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level,
			"must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}

	positive := []struct {
		field string
		value int
	}{
		{"launch.poll_interval_ms", c.Launch.PollIntervalMs},
		{"launch.max_poll_attempts", c.Launch.MaxPollAttempts},
		{"stabilize.interval_ms", c.Stabilize.IntervalMs},
		{"stabilize.max_attempts", c.Stabilize.MaxAttempts},
		{"stabilize.required_matches", c.Stabilize.RequiredMatches},
		{"monitor.interval_ms", c.Monitor.IntervalMs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, ValidationError{p.field, p.value, "must be greater than 0"})
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"stabilize.tolerance_px", c.Stabilize.TolerancePx},
		{"monitor.force_window_ms", c.Monitor.ForceWindowMs},
		{"apply.settle_delay_ms", c.Apply.SettleDelayMs},
		{"apply.recenter_offset_px", c.Apply.RecenterOffsetPx},
		{"apply.desktop_switch_delay_ms", c.Apply.DesktopSwitchDelayMs},
		{"server.cache_ttl_ms", c.Server.CacheTTLMs},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			errs = append(errs, ValidationError{n.field, n.value, "must not be negative"})
		}
	}

	if !slices.Contains(ValidTransports(), c.Server.Transport) {
		errs = append(errs, ValidationError{"server.transport", c.Server.Transport,
			"must be one of " + strings.Join(ValidTransports(), ", ")})
	}
	if c.Server.Transport == "http" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, ValidationError{"server.port", c.Server.Port, "must be between 1 and 65535"})
	}
	return errs
}
