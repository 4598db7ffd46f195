package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mohsinsiddi/qbx/internal/config"
	"github.com/Mohsinsiddi/qbx/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/qbx/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = zap.NewNop()
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "qbx",
	Short: "Local qiibeeCoin (QBX) ledger",
	Long: `qbx — a single-node ledger for the qiibeeCoin (QBX) token.

  Run the genesis crowdsale, then transfer, burn, pause and unpause
  through signed calls. Every call is its own block with a receipt
  carrying the Transfer, Burn, Pause and Unpause events as EVM logs.

State lives in the config dir (default ~/.qbx, or $QBX_CONFIG_DIR).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logPath := cfg.LogPath
		if logPath == "" {
			logPath = filepath.Join(cfg.Dir(), config.LogFile)
		}
		logger, err = logging.New(cfg.LogLevel, verbose, logPath)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync() //nolint:errcheck
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

func init() {
	// QBX_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv(config.DirEnv); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.qbx)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		genesisCmd,
		accountCmd,
		tokenCmd,
		eventsCmd,
		configCmd,
	)
}
