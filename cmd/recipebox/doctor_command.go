package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"recipebox/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, services and the server lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), rt.cfg, rt.preflightTargets())
			results = append(results, preflight.CheckServer(rt.cfg.LockPath(), rt.cfg.Paths.APIBind))

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				colorize := isInteractive(cmd.OutOrStdout())
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, checkStatus(r.Passed, colorize), r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Check", "Status", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func checkStatus(passed, colorize bool) string {
	label, color := "FAIL", text.FgRed
	if passed {
		label, color = "OK", text.FgGreen
	}
	if !colorize {
		return label
	}
	return color.Sprint(label)
}
