package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sheridangray/family-event-planner/internal/storage"
)

var (
	flagAuditLimit  int
	flagAuditFormat string
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent merges from the audit database",
		Args:  cobra.NoArgs,
		RunE:  runAudit,
	}

	cmd.Flags().IntVar(&flagAuditLimit, "limit", 20, "Number of merges to show")
	cmd.Flags().StringVar(&flagAuditFormat, "format", "text", "Output format: text or json")

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagAuditFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagAuditFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Audit.SQLitePath == "" {
		return fmt.Errorf("no audit database configured (set audit.sqlite_path or --audit-db)")
	}

	db, err := storage.OpenDB(cfg.Audit.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening audit database: %w", err)
	}
	defer db.Close()

	records, err := db.RecentMerges(cmd.Context(), flagAuditLimit)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		if records == nil {
			records = []storage.MergeRecord{}
		}
		return writeJSON(cmd.OutOrStdout(), records)
	}
	return writeAuditText(cmd.OutOrStdout(), records, time.Now())
}

func writeAuditText(w io.Writer, records []storage.MergeRecord, now time.Time) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No merges recorded.")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(w, "%-14s %-5s %.2f  %s (%s) -> %s\n",
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			r.MergeType,
			r.SimilarityScore,
			r.Duplicate.Title,
			r.DuplicateSource,
			primaryLabel(r),
		)
	}
	fmt.Fprintf(w, "\nTotal: %d merges\n", len(records))
	return nil
}

func primaryLabel(r storage.MergeRecord) string {
	if r.PrimaryTitle != "" {
		return r.PrimaryTitle
	}
	return r.PrimaryID
}
