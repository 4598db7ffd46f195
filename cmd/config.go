package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/qbx/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetDefaultAccountCmd = &cobra.Command{
	Use:   "set-default-account <name>",
	Short: "Set the default signing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDefaultAccount(args[0])
	},
}

var configSetPauseTransfersCmd = &cobra.Command{
	Use:   "set-pause-transfers <on|off>",
	Short: "Choose whether pausing also blocks transfers",
	Long: `Pausing always blocks burns. With pause_transfers on, transfers are
blocked as well. The setting applies to every later signed call.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		cfg.PauseTransfers = on
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("pause_transfers set to %v", on)))
		return nil
	},
}

var configSetLogLevelCmd = &cobra.Command{
	Use:   "set-log-level <level>",
	Short: "Set the log level (debug, info, warn, error)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prev := cfg.LogLevel
		cfg.LogLevel = args[0]
		if err := cfg.Validate(); err != nil {
			cfg.LogLevel = prev
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Log level set to %q", args[0])))
		return nil
	},
}

var configSetMetricsAddrCmd = &cobra.Command{
	Use:   "set-metrics-addr <addr>",
	Short: "Set the address `events watch` serves metrics on (\"\" to disable)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.MetricsAddr = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Metrics address set to %q", args[0])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(
		configListCmd,
		configSetDefaultAccountCmd,
		configSetPauseTransfersCmd,
		configSetLogLevelCmd,
		configSetMetricsAddrCmd,
	)
}
