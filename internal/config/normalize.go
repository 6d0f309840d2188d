package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeStore()
	if err := c.normalizeViewer(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizeStore() {
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	c.ConnString = strings.TrimSpace(c.ConnString)
	switch {
	case strings.TrimSpace(os.Getenv(envDSN)) != "":
		c.Store.DSN = strings.TrimSpace(os.Getenv(envDSN))
		c.DSNSource = envDSN
	case c.Store.DSN != "":
		c.DSNSource = "store.dsn"
	case c.ConnString != "":
		c.Store.DSN = c.ConnString
		c.DSNSource = "conn_string"
	}
	c.Store.Table = strings.TrimSpace(c.Store.Table)
	if c.Store.Table == "" {
		c.Store.Table = defaultStoreTable
	}
	if c.Store.TimeoutSeconds <= 0 {
		c.Store.TimeoutSeconds = defaultStoreTimeoutSeconds
	}
}

func (c *Config) normalizeViewer() error {
	var err error
	if strings.TrimSpace(c.Viewer.OverrideFile) == "" {
		c.Viewer.OverrideFile = defaultOverrideFileName
	}
	if c.Viewer.OverrideFile, err = c.ResolvePath(c.Viewer.OverrideFile); err != nil {
		return fmt.Errorf("viewer.override_file: %w", err)
	}
	if strings.TrimSpace(c.Viewer.LockFile) == "" {
		c.Viewer.LockFile = filepath.Join(os.TempDir(), defaultLockFileName)
	}
	if c.Viewer.LockFile, err = c.ResolvePath(c.Viewer.LockFile); err != nil {
		return fmt.Errorf("viewer.lock_file: %w", err)
	}
	c.Viewer.InstanceDetection = strings.ToLower(strings.TrimSpace(c.Viewer.InstanceDetection))
	if c.Viewer.InstanceDetection == "" {
		c.Viewer.InstanceDetection = defaultInstanceDetection
	}
	if c.Viewer.PollIntervalSeconds <= 0 {
		c.Viewer.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	c.Viewer.Args = trimAll(c.Viewer.Args)
	c.Viewer.Terminal = trimAll(c.Viewer.Terminal)
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("INBOXWATCH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	var err error
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = c.BaseDir
	}
	if c.Logging.Dir, err = c.ResolvePath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	return nil
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
