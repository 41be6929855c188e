package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Manage recipe folders",
	}
	foldersCmd.AddCommand(newFoldersListCommand(ctx))
	foldersCmd.AddCommand(newFoldersAddCommand(ctx))
	foldersCmd.AddCommand(newFoldersRemoveCommand(ctx))
	return foldersCmd
}

func newFoldersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List folders with recipe counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			folders, err := rt.orch.Folders(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, folders)
			}
			if len(folders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No folders")
				return nil
			}
			counts := map[string]int{}
			if listing, err := rt.orch.Recipes(cmd.Context(), orchestrator.Filter{}); err == nil {
				for _, r := range listing.Recipes {
					counts[r.FolderID]++
				}
			}
			rows := make([][]string, 0, len(folders))
			for _, f := range folders {
				rows = append(rows, []string{f.ID, f.Name, f.Color, strconv.Itoa(counts[f.ID])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Color", "Recipes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newFoldersAddCommand(ctx *commandContext) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			folder, err := rt.orch.CreateFolder(cmd.Context(), recipe.FolderInput{Name: args[0], Color: color})
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, folder)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%s)\n", folder.Name, folder.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Folder color as #rrggbb")
	return cmd
}

func newFoldersRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a folder; its recipes become uncategorized",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.orch.DeleteFolder(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %s\n", args[0])
			return nil
		},
	}
}
