package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheridangray/family-event-planner/internal/config"
	"github.com/sheridangray/family-event-planner/internal/dedup"
	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/logger"
	"github.com/sheridangray/family-event-planner/internal/metrics"
	"github.com/sheridangray/family-event-planner/internal/scraper"
	"github.com/sheridangray/family-event-planner/internal/storage"
)

var (
	flagFormat      string
	flagSort        string
	flagSeed        bool
	flagSave        bool
	flagFetch       bool
	flagMetricsFile string
)

func newDedupeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe [files...]",
		Short: "Merge duplicate events from JSON files, stdin or configured sources",
		Long: `Reads raw event records (a JSON array or a single object per file, '-' for
stdin), merges listings of the same event and prints the canonical events.
With --fetch the configured sources are fetched first.`,
		RunE: runDedupe,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&flagSort, "sort", "", "Sort output by: date, title or source (default: first seen)")
	cmd.Flags().BoolVar(&flagSeed, "seed", true, "Merge into canonical events saved by the previous run")
	cmd.Flags().BoolVar(&flagSave, "save", true, "Save canonical events for the next run")
	cmd.Flags().BoolVar(&flagFetch, "fetch", false, "Fetch configured sources in addition to files")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file (overrides config)")

	return cmd
}

func runDedupe(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON && format != FormatICS {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", flagFormat)
	}
	sortOrder := SortOrder(strings.ToLower(flagSort))
	if sortOrder != "" && sortOrder != SortByDate && sortOrder != SortByTitle && sortOrder != SortBySource {
		return fmt.Errorf("invalid sort: %s (must be 'date', 'title' or 'source')", flagSort)
	}
	if len(args) == 0 && !flagFetch {
		return fmt.Errorf("no input: pass JSON files, '-' for stdin, or --fetch")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagMetricsFile != "" {
		cfg.Metrics.Textfile = flagMetricsFile
	}

	ctx := cmd.Context()
	log := logger.Default()
	reg := metrics.New()

	inputs, err := readInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	if flagFetch {
		fetched, err := fetchSources(ctx, cfg, reg, log)
		if err != nil {
			log.Warn("Some sources failed", nil, err)
		}
		inputs = append(inputs, fetched...)
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	previous := event.NewSnapshot()
	if flagSeed {
		previous, err = store.LoadSnapshot()
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	opts := append(cfg.DedupOptions(), dedup.WithLogger(log), dedup.WithRecorder(reg))

	var db *storage.DB
	if cfg.Audit.SQLitePath != "" {
		db, err = storage.OpenDB(cfg.Audit.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		defer db.Close()

		// Merge audits reference primaries by id, so they must be stored first
		if err := db.SaveEvents(ctx, previous.List()); err != nil {
			return fmt.Errorf("saving previous events: %w", err)
		}
		if err := db.SaveEvents(ctx, inputs); err != nil {
			return fmt.Errorf("saving input events: %w", err)
		}
		opts = append(opts, dedup.WithAuditSink(db))
	}

	d := dedup.New(opts...)
	seeded := d.Seed(previous.List())
	result := d.Dedupe(ctx, inputs)
	d.Wait()

	log.Debug("Dedupe finished", logger.Fields{
		"inputs": len(inputs),
		"seeded": seeded,
		"unique": len(result.UniqueEvents),
	})

	if db != nil {
		if err := db.SaveEvents(ctx, d.Events()); err != nil {
			return fmt.Errorf("saving canonical events: %w", err)
		}
	}

	diff := event.Diff(previous, result.UniqueEvents)

	if flagSave {
		if err := store.SaveEvents(d.Events()); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
	}

	if sortOrder != "" {
		sortEvents(result.UniqueEvents, sortOrder)
	}

	out := &OutputResult{
		GeneratedAt:  time.Now().UTC(),
		InputCount:   len(inputs),
		UniqueEvents: result.UniqueEvents,
		MergeInfo:    result.MergeInfo,
		NewEventIDs:  eventIDs(diff.NewEvents),
		Changes:      diff.Changes,
		Stats:        d.Stats(),
	}
	if err := WriteOutput(cmd.OutOrStdout(), out, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		if err := reg.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	return nil
}

// readInputs decodes every named file, or stdin for "-"
func readInputs(stdin io.Reader, args []string) ([]*event.Event, error) {
	var events []*event.Event

	for _, name := range args {
		var (
			data []byte
			err  error
		)
		if name == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		raws, err := event.DecodeRaw(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		events = append(events, event.FromRaw(raws)...)
	}

	return events, nil
}

func fetchSources(ctx context.Context, cfg config.Config, reg *metrics.Registry, log *logger.Logger) ([]*event.Event, error) {
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	sc, err := scraper.New(cfg.Fetch, cfg.Sources, scraper.WithLogger(log), scraper.WithObserver(reg))
	if err != nil {
		return nil, fmt.Errorf("initializing scraper: %w", err)
	}
	return sc.FetchAll(ctx)
}

func eventIDs(events []*event.Event) []string {
	ids := make([]string, 0, len(events))
	for _, evt := range events {
		ids = append(ids, evt.ID)
	}
	return ids
}
