package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/OralVault/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Load()
			commit := info.Commit
			if commit == "" {
				commit = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "oralvault %s (%s) %s %s/%s\n",
				info.Version, commit, info.GoVersion, runtime.GOOS, runtime.GOARCH)
		},
	}
}
