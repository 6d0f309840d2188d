package config

const (
	defaultStoreTable          = "submissions"
	defaultStoreTimeoutSeconds = 15
	defaultOverrideFileName    = "inboxview.override.toml"
	defaultViewerBinary        = "inboxview"
	defaultLockFileName        = "inboxview.lock"
	defaultInstanceDetection   = InstanceDetectionBoth
	defaultPollIntervalSeconds = 30
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Instance detection strategies for the viewer single-instance check.
const (
	InstanceDetectionLock    = "lock"
	InstanceDetectionProcess = "process"
	InstanceDetectionBoth    = "both"
)

// Default returns a Config populated with repository defaults. Paths that
// depend on the executable directory are filled in by normalize.
func Default() Config {
	return Config{
		Store: Store{
			Table:          defaultStoreTable,
			TimeoutSeconds: defaultStoreTimeoutSeconds,
		},
		Viewer: Viewer{
			InstanceDetection:   defaultInstanceDetection,
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Bell:           true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// defaultViewerPaths lists the conventional install locations probed after
// every configured override. Relative entries resolve against the executable
// directory.
func defaultViewerPaths() []string {
	return []string{
		defaultViewerBinary,
		"../inboxview/" + defaultViewerBinary,
		"~/.local/bin/" + defaultViewerBinary,
		"/usr/local/bin/" + defaultViewerBinary,
	}
}
