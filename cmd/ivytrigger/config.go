// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ivytrigger/internal/config"
	"ivytrigger/internal/issue"
)

// configCmd is the `ivytrigger config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ivytrigger configuration",
	Long: `Manage ivytrigger configuration.

Configuration is read from ./ivytrigger.cue in the working directory, or:
  - Linux: ~/.config/ivytrigger/config.cue
  - macOS: ~/Library/Application Support/ivytrigger/config.cue
  - Windows: %APPDATA%\ivytrigger\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	keyStyle := DepStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("namespace"), valueStyle.Render(cfg.Namespace))
	fmt.Printf("%s: %s\n", keyStyle.Render("descriptor"), valueStyle.Render(cfg.Descriptor))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("settings"))
	switch {
	case cfg.Settings.File != "":
		fmt.Printf("  file: %s\n", valueStyle.Render(cfg.Settings.File))
	case cfg.Settings.URL != "":
		fmt.Printf("  url: %s\n", valueStyle.Render(cfg.Settings.URL))
	default:
		fmt.Printf("  %s\n", SubtitleStyle.Render("(not configured)"))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("properties"))
	if cfg.Properties.Files == "" && cfg.Properties.Content == "" {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		if cfg.Properties.Files != "" {
			fmt.Printf("  files: %s\n", valueStyle.Render(cfg.Properties.Files))
		}
		if cfg.Properties.Content != "" {
			fmt.Printf("  content: %s\n", valueStyle.Render("(inline, set)"))
		}
	}

	fmt.Println()
	fmt.Printf("%s: %s\n", keyStyle.Render("download_artifacts"), valueStyle.Render(fmt.Sprintf("%v", cfg.DownloadArtifacts)))
	fmt.Printf("%s: %s\n", keyStyle.Render("debug"), valueStyle.Render(fmt.Sprintf("%v", cfg.Debug)))
	fmt.Printf("%s: %s\n", keyStyle.Render("snapshot"), valueStyle.Render(cfg.SnapshotPath()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("watch"))
	fmt.Printf("  interval: %s\n", valueStyle.Render(cfg.Watch.Interval.String()))
	if cfg.Watch.Hook != "" {
		fmt.Printf("  hook: %s\n", valueStyle.Render(cfg.Watch.Hook))
	} else {
		fmt.Printf("  hook: %s\n", SubtitleStyle.Render("(none configured)"))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ivy"))
	if cfg.Ivy.Command != "" {
		fmt.Printf("  command: %s\n", valueStyle.Render(cfg.Ivy.Command))
	} else {
		fmt.Printf("  command: %s\n", SubtitleStyle.Render("(ivy on PATH)"))
	}
	if len(cfg.Ivy.ExtraArgs) > 0 {
		fmt.Printf("  extra_args: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Ivy.ExtraArgs)))
	}

	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/%s.%s\n", cfgDir, config.ConfigFileName, config.ConfigFileExt)
	return nil
}
