package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"json", "text"}
)

// ValidateConfig returns every problem found in config. An empty slice
// means the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error

	if err := validateAddress(config.Server.Address); err != nil {
		errs = append(errs, ValidationError{Field: "server.address", Message: err.Error()})
	}
	if config.Server.MaxConnections < 0 {
		errs = append(errs, ValidationError{Field: "server.maxConnections", Message: "must not be negative"})
	}
	if config.Server.ReadTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.readTimeout", Message: "must not be negative"})
	}
	if config.Server.WriteTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.writeTimeout", Message: "must not be negative"})
	}

	if strings.TrimSpace(config.Directory.RecordFile) == "" {
		errs = append(errs, ValidationError{Field: "directory.recordFile", Message: "is required"})
	}

	if !containsFold(validLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q, must be one of %s", config.Logging.Level, strings.Join(validLevels, ", ")),
		})
	}
	if !containsFold(validFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q, must be one of %s", config.Logging.Format, strings.Join(validFormats, ", ")),
		})
	}

	return errs
}

func validateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("is required")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
