package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRecipesSimilarCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "List recipes that resemble a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			similar, err := rt.orch.SimilarRecipes(cmd.Context(), args[0], limit)
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, similar)
			}
			if len(similar) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No similar recipes")
				return nil
			}
			rows := make([][]string, 0, len(similar))
			for _, s := range similar {
				rows = append(rows, []string{
					s.Recipe.ID,
					s.Recipe.DisplayTitle(),
					strconv.Itoa(int(s.Score*100+0.5)) + "%",
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Match"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of matches")
	return cmd
}
