package testsupport

import (
	"path/filepath"
	"testing"

	"inboxwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The store DSN points at a SQLite file that does not exist yet; open it with
// MustOpenStore to create the schema.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.BaseDir = filepath.Join(base, "bin")
	cfgVal.Store.DSN = filepath.Join(base, "data", "submissions.db")
	cfgVal.DSNSource = "store.dsn"
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Viewer.LockFile = filepath.Join(base, "run", "inboxview.lock")
	cfgVal.Viewer.OverrideFile = filepath.Join(cfgVal.BaseDir, "inboxview.override.toml")
	cfgVal.Notifications.Bell = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDSN overrides the store DSN; an empty value simulates a missing setting.
func WithDSN(dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.DSN = dsn
		if dsn == "" {
			b.cfg.DSNSource = ""
		}
	}
}

// WithViewerStub writes an executable stub into the config's executable
// directory and points the legacy viewer_path key at it.
func WithViewerStub(name string) ConfigOption {
	return func(b *configBuilder) {
		if name == "" {
			name = "inboxview"
		}
		target := filepath.Join(b.cfg.BaseDir, name)
		WriteExecutable(b.t, target, "#!/bin/sh\nexit 0\n")
		b.cfg.ViewerPath = target
	}
}

// WithPreventMultipleInstances sets the [viewer] prevent_multiple_instances key.
func WithPreventMultipleInstances(value bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Viewer.PreventMultipleInstances = &value
	}
}

// WithInstanceDetection selects the single-instance probe strategy.
func WithInstanceDetection(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Viewer.InstanceDetection = mode
	}
}
