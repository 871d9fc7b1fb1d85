package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheridangray/family-event-planner/internal/config"
	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/logger"
	"github.com/sheridangray/family-event-planner/internal/metrics"
)

var flagSources []string

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch configured sources and print their events as JSON",
		Long: `Fetches every configured source (or those named with --source) and prints
the events as a JSON array. The output can be fed back to dedupe.`,
		Args: cobra.NoArgs,
		RunE: runFetch,
	}

	cmd.Flags().StringSliceVar(&flagSources, "source", nil, "Only fetch the named sources")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Sources, err = selectSources(cfg.Sources, flagSources)
	if err != nil {
		return err
	}

	events, err := fetchSources(cmd.Context(), cfg, metrics.New(), logger.Default())
	if err != nil {
		// Partial results are still worth printing
		logger.Warn("Some sources failed", nil, err)
	}
	if events == nil {
		events = []*event.Event{}
	}

	return writeJSON(cmd.OutOrStdout(), events)
}

func selectSources(all []config.Source, names []string) ([]config.Source, error) {
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]config.Source, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	selected := make([]config.Source, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source: %s", name)
		}
		selected = append(selected, s)
	}
	return selected, nil
}
