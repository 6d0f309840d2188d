package config

import (
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateViewer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if !identifierPattern.MatchString(c.Store.Table) {
		return fmt.Errorf("store.table: %q is not a valid table name", c.Store.Table)
	}
	return nil
}

func (c *Config) validateViewer() error {
	switch c.Viewer.InstanceDetection {
	case InstanceDetectionLock, InstanceDetectionProcess, InstanceDetectionBoth:
	default:
		return fmt.Errorf("viewer.instance_detection: unsupported value %q (use lock, process, or both)", c.Viewer.InstanceDetection)
	}
	if c.Viewer.PollIntervalSeconds < 1 {
		return fmt.Errorf("viewer.poll_interval_seconds must be positive")
	}
	return nil
}
