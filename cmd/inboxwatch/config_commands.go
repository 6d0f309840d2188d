package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"inboxwatch/internal/config"
	"inboxwatch/internal/submissions"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit [store] dsn (or export INBOXWATCH_DSN) before scheduling inboxwatch.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if _, err := cfg.StoreDSN(); err != nil {
				return err
			}
			if _, err := config.FirstExisting(cfg.ViewerCandidates()); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every precedence tier and the value that wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Config file:   %s (exists: %s)\n", ctx.configPath, yesNo(ctx.configExists))
			fmt.Fprintf(out, "Override file: %s (loaded: %s)\n", cfg.Override.File, yesNo(cfg.Override.Loaded))
			fmt.Fprintf(out, "Base dir:      %s\n\n", cfg.BaseDir)

			fmt.Fprintln(out, "Store DSN")
			fmt.Fprintln(out, renderTable(out, tierColumns(), dsnRows(cfg)))

			fmt.Fprintln(out, "Viewer executable")
			fmt.Fprintln(out, renderTable(out, []columnSpec{
				{header: "#", align: alignRight},
				{header: "Source"},
				{header: "Path", widthMax: 60},
				{header: "Exists"},
				{header: "Winner"},
			}, viewerRows(cfg)))

			fmt.Fprintln(out, "prevent_multiple_instances")
			fmt.Fprintln(out, renderTable(out, tierColumns(), preventRows(cfg)))

			fmt.Fprintf(out, "Lock file:          %s\n", cfg.Viewer.LockFile)
			fmt.Fprintf(out, "Instance detection: %s\n", cfg.Viewer.InstanceDetection)
			fmt.Fprintf(out, "Poll interval:      %ds\n", cfg.Viewer.PollIntervalSeconds)
			fmt.Fprintf(out, "Log directory:      %s\n", cfg.Logging.Dir)
			fmt.Fprintf(out, "Notifications:      %s\n", notificationSummary(cfg))
			return nil
		},
	}
}

func tierColumns() []columnSpec {
	return []columnSpec{
		{header: "Source"},
		{header: "Value", widthMax: 60},
		{header: "Winner"},
	}
}

func dsnRows(cfg *config.Config) [][]string {
	env := strings.TrimSpace(os.Getenv("INBOXWATCH_DSN"))
	tiers := []struct {
		source string
		value  string
	}{
		{"INBOXWATCH_DSN", env},
		{"store.dsn", ""},
		{"conn_string", cfg.ConnString},
	}
	rows := make([][]string, 0, len(tiers))
	for _, tier := range tiers {
		value := tier.value
		winner := tier.source == cfg.DSNSource
		if winner {
			value = cfg.Store.DSN
		}
		if value == "" {
			value = "(unset)"
			if tier.source == "store.dsn" && cfg.DSNSource == "INBOXWATCH_DSN" {
				value = "(not consulted)"
			}
		} else {
			value = redactDSN(value)
		}
		rows = append(rows, []string{tier.source, value, marker(winner)})
	}
	if cfg.DSNSource != "" {
		rows = append(rows, []string{"driver", submissions.DetectDriver(cfg.Store.DSN), ""})
	}
	return rows
}

func viewerRows(cfg *config.Config) [][]string {
	candidates := cfg.ViewerCandidates()
	winner := -1
	if resolved, err := config.FirstExisting(candidates); err == nil {
		winner = resolved.Index
	}
	rows := make([][]string, 0, len(candidates))
	for idx, candidate := range candidates {
		_, statErr := os.Stat(candidate.Path)
		rows = append(rows, []string{
			strconv.Itoa(idx + 1),
			candidate.Source,
			candidate.Path,
			yesNo(statErr == nil),
			marker(idx == winner),
		})
	}
	return rows
}

func preventRows(cfg *config.Config) [][]string {
	_, source := config.FirstBool(cfg.PreventMultipleTiers(), true)
	rows := make([][]string, 0, 4)
	for _, tier := range cfg.PreventMultipleTiers() {
		value := "(unset)"
		if tier.Value != nil {
			value = strconv.FormatBool(*tier.Value)
		}
		rows = append(rows, []string{tier.Source, value, marker(tier.Source == source)})
	}
	rows = append(rows, []string{"default", "true", marker(source == "default")})
	return rows
}

func notificationSummary(cfg *config.Config) string {
	var parts []string
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		parts = append(parts, "ntfy "+topic)
	}
	if cfg.Notifications.Bell {
		parts = append(parts, "terminal bell")
	}
	if len(parts) == 0 {
		return "log only"
	}
	return strings.Join(parts, ", ")
}

func marker(winner bool) string {
	if winner {
		return "winner"
	}
	return ""
}

// redactDSN hides passwords in URL and key=value connection strings.
func redactDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			return u.Redacted()
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, field := range fields {
		if strings.HasPrefix(strings.ToLower(field), "password=") {
			fields[i] = "password=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}
