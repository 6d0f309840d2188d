package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"inboxwatch/internal/faults"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	envConfigPath = "INBOXWATCH_CONFIG"
	envDSN        = "INBOXWATCH_DSN"
	envBaseDir    = "INBOXWATCH_BASE_DIR"
)

// Store contains connection settings for the shared submission store.
type Store struct {
	DSN            string `toml:"dsn"`
	Table          string `toml:"table"`
	LegacyColumns  bool   `toml:"legacy_columns"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Viewer contains settings used to locate, launch, and coordinate the viewer.
type Viewer struct {
	OverrideFile             string   `toml:"override_file"`
	SearchPaths              []string `toml:"search_paths"`
	PreventMultipleInstances *bool    `toml:"prevent_multiple_instances"`
	Args                     []string `toml:"args"`
	Terminal                 []string `toml:"terminal"`
	LockFile                 string   `toml:"lock_file"`
	InstanceDetection        string   `toml:"instance_detection"`
	PollIntervalSeconds      int      `toml:"poll_interval_seconds"`
}

// Notifications contains configuration for new-submission alerts.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Bell           bool   `toml:"bell"`
}

// Logging contains configuration for log output.
type Logging struct {
	Dir           string `toml:"dir"`
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Override is the per-install override file. It wins over every other tier.
type Override struct {
	Path                     string `toml:"path"`
	PreventMultipleInstances *bool  `toml:"prevent_multiple_instances"`

	// File is the resolved location of the override file; Loaded reports
	// whether it existed.
	File   string `toml:"-"`
	Loaded bool   `toml:"-"`
}

// Config encapsulates all configuration values for inboxwatch.
//
// The flat top-level keys (conn_string, viewer_path,
// prevent_multiple_instances) are the legacy single-key settings; they sit
// between the override file and the structured sections in every precedence
// chain.
type Config struct {
	ConnString               string `toml:"conn_string"`
	ViewerPath               string `toml:"viewer_path"`
	PreventMultipleInstances *bool  `toml:"prevent_multiple_instances"`

	Store         Store         `toml:"store"`
	Viewer        Viewer        `toml:"viewer"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`

	// BaseDir is the directory holding the running executable. Relative
	// paths resolve against it.
	BaseDir string `toml:"-"`
	// DSNSource names the tier that supplied Store.DSN.
	DSNSource string   `toml:"-"`
	Override  Override `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/inboxwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and the override file applied.
func Load(path string) (*Config, string, bool, error) {
	baseDir, err := ExecutableDir()
	if err != nil {
		return nil, "", false, err
	}
	loadDotEnv(baseDir)

	cfg := Default()
	cfg.BaseDir = baseDir

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.loadOverride(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inboxwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads .env files next to the executable and in the working
// directory. Variables already present in the environment are kept.
func loadDotEnv(baseDir string) {
	candidates := []string{filepath.Join(baseDir, ".env")}
	if wd, err := os.Getwd(); err == nil && wd != baseDir {
		candidates = append(candidates, filepath.Join(wd, ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func (c *Config) loadOverride() error {
	path := c.Viewer.OverrideFile
	c.Override = Override{File: path}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read override file: %w", err)
	}
	var override Override
	if err := toml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parse override file %s: %w", path, err)
	}
	override.File = path
	override.Loaded = true
	if strings.TrimSpace(override.Path) != "" {
		resolved, err := c.ResolvePath(override.Path)
		if err != nil {
			return fmt.Errorf("override path: %w", err)
		}
		override.Path = resolved
	}
	c.Override = override
	return nil
}

// StoreDSN returns the connection string chosen by the DSN precedence chain.
func (c *Config) StoreDSN() (string, error) {
	dsn := strings.TrimSpace(c.Store.DSN)
	if dsn == "" {
		return "", faults.Wrap(faults.ErrConfigurationMissing, "config", "store dsn",
			fmt.Sprintf("set %s, [store] dsn, or conn_string", envDSN), nil)
	}
	return dsn, nil
}

// ViewerCandidates returns the ordered viewer executable candidates: the
// override file, the legacy viewer_path key, the [viewer] search paths, and
// finally the built-in install locations.
func (c *Config) ViewerCandidates() []Candidate {
	var candidates []Candidate
	if c.Override.Loaded && c.Override.Path != "" {
		candidates = append(candidates, Candidate{Source: "override file", Path: c.Override.Path})
	}
	if p, err := c.ResolvePath(c.ViewerPath); err == nil && p != "" {
		candidates = append(candidates, Candidate{Source: "viewer_path", Path: p})
	}
	for _, entry := range c.Viewer.SearchPaths {
		if p, err := c.ResolvePath(entry); err == nil && p != "" {
			candidates = append(candidates, Candidate{Source: "viewer.search_paths", Path: p})
		}
	}
	for _, entry := range defaultViewerPaths() {
		if p, err := c.ResolvePath(entry); err == nil && p != "" {
			candidates = append(candidates, Candidate{Source: "default", Path: p})
		}
	}
	return candidates
}

// PreventMultipleTiers returns the prevent_multiple_instances values in
// precedence order.
func (c *Config) PreventMultipleTiers() []OptionalBool {
	var override *bool
	if c.Override.Loaded {
		override = c.Override.PreventMultipleInstances
	}
	return []OptionalBool{
		{Source: "override file", Value: override},
		{Source: "prevent_multiple_instances", Value: c.PreventMultipleInstances},
		{Source: "viewer.prevent_multiple_instances", Value: c.Viewer.PreventMultipleInstances},
	}
}

// PreventMultiple resolves the single-instance flag; it defaults to true.
func (c *Config) PreventMultiple() bool {
	value, _ := FirstBool(c.PreventMultipleTiers(), true)
	return value
}

// ResolvePath expands environment variables and the home shortcut, then makes
// relative paths absolute against BaseDir. Empty input yields empty output.
func (c *Config) ResolvePath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	value = os.ExpandEnv(value)
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) && c.BaseDir != "" {
		value = filepath.Join(c.BaseDir, value)
	}
	return expandPath(value)
}

// ExecutableDir returns the directory of the running executable, or the
// INBOXWATCH_BASE_DIR override when set.
func ExecutableDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envBaseDir)); dir != "" {
		return expandPath(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates the log directory.
func (c *Config) EnsureDirectories() error {
	if dir := c.Logging.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
