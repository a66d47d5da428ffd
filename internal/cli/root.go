// Package cli wires the oralvault command line: the API server and the operator commands
// that share its configuration.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/config"
	"github.com/JustinTDCT/OralVault/internal/logging"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "oralvault",
		Short: "Administration backend for the oral history archive",
		Long: `oralvault serves the admin API over institutions, interviewees, researchers,
interviews, transcription segments and the matrix of codes.

Configuration is read from oralvault.yaml (or --config), then .env, then the
environment. Settings stored in the ajustes table override both at startup.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to the YAML config file")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newImportCommand(),
		newTokenCommand(),
		newHashPasswordCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
