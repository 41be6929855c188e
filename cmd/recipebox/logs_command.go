package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"recipebox/internal/api"
	"recipebox/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines   int
		follow  bool
		filters logs.Filters
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log events",
		Long: "Show log events from a running `recipebox serve`. Without a server the\n" +
			"raw log file is tailed instead; filters need the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			asJSON := ctx.jsonOutput()
			printed, err := logs.Stream(runCtx, client, logs.StreamOptions{
				Lines:    lines,
				Follow:   follow,
				Filters:  filters,
				FilePath: cfg.LogFilePath(),
			}, func(evt api.LogEvent) {
				if asJSON {
					data, _ := json.Marshal(evt)
					fmt.Fprintln(out, string(data))
					return
				}
				fmt.Fprintln(out, formatLogEvent(evt))
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, logs.ErrFiltersRequireAPI) {
				return fmt.Errorf("filters need a running server at %s", cfg.Paths.APIBind)
			}
			if err != nil {
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(out, "No log entries")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent events to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new events")
	cmd.Flags().StringVar(&filters.Component, "component", "", "Only show events from this component")
	cmd.Flags().StringVar(&filters.RecipeID, "recipe", "", "Only show events for this recipe id")
	cmd.Flags().StringVar(&filters.Level, "level", "", "Only show events at this level")
	cmd.Flags().StringVar(&filters.CorrelationID, "request", "", "Only show events for this request id")
	return cmd
}

func formatLogEvent(evt api.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp.Local().Format("15:04:05"))
	fmt.Fprintf(&b, " %-5s", evt.Level)
	if evt.Component != "" {
		fmt.Fprintf(&b, " [%s]", evt.Component)
	}
	b.WriteString(" ")
	b.WriteString(evt.Message)
	if evt.RecipeID != "" {
		fmt.Fprintf(&b, " recipe=%s", evt.RecipeID)
	}
	writeFields(&b, evt.Fields)
	return b.String()
}

func writeFields(w io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(w, " %s=%s", key, fields[key])
	}
}
