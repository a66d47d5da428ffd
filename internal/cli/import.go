package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/OralVault/internal/db"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/transcription"
)

func newImportCommand() *cobra.Command {
	var interviewID int64
	cmd := &cobra.Command{
		Use:   "import --interview ID FILE",
		Short: "Load a transcription CSV into an interview",
		Long: `Parses FILE (or stdin when FILE is "-") and appends its rows as segments of the
interview. Nothing is written unless every row is valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interviewID <= 0 {
				return fmt.Errorf("--interview must be a positive id")
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			// With a shared Redis cache and the webhook configured, running servers and the
			// public site see the import at once; otherwise their cache entries expire.
			store, closeStore, err := openCache(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			_, notifier, closeNotifier := newNotifier(cfg, store, logger)
			defer closeNotifier()

			importer := transcription.NewImporter(gateway.NewPostgres(database.DB), notifier, logger)
			summary, err := importer.Import(cmd.Context(), interviewID, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d segments into interview %d (batch %s)\n",
				summary.Count, summary.InterviewID, summary.BatchID)
			if len(summary.UnknownRoles) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: unknown speaker roles %v\n", summary.UnknownRoles)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&interviewID, "interview", 0, "id of the interview receiving the segments")
	_ = cmd.MarkFlagRequired("interview")
	return cmd
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}
