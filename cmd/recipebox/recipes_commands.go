package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"recipebox/internal/config"
	"recipebox/internal/i18n"
	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/imagestore"
)

func newRecipesCommand(ctx *commandContext) *cobra.Command {
	recipesCmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe"},
		Short:   "Manage saved recipes",
	}
	recipesCmd.AddCommand(newRecipesListCommand(ctx))
	recipesCmd.AddCommand(newRecipesShowCommand(ctx))
	recipesCmd.AddCommand(newRecipesSimilarCommand(ctx))
	recipesCmd.AddCommand(newRecipesAddCommand(ctx))
	recipesCmd.AddCommand(newRecipesEditCommand(ctx))
	recipesCmd.AddCommand(newRecipesDeleteCommand(ctx))
	recipesCmd.AddCommand(newRecipesFavoriteCommand(ctx))
	recipesCmd.AddCommand(newRecipesMoveCommand(ctx))
	recipesCmd.AddCommand(newRecipesApproveCommand(ctx))
	recipesCmd.AddCommand(newRecipesImagesCommand(ctx))
	recipesCmd.AddCommand(newRecipesCommentsCommand(ctx))
	return recipesCmd
}

// userError strips the service marker prefix for terminal output.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", services.UserMessage(err))
}

func newRecipesListCommand(ctx *commandContext) *cobra.Command {
	var filter orchestrator.Filter
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if status != "" {
				filter.Status = recipe.ParseStatus(status)
			}
			listing, err := rt.orch.Recipes(cmd.Context(), filter)
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, listing)
			}
			out := cmd.OutOrStdout()
			if listing.Cached {
				fmt.Fprintln(out, rt.printer.Sprintf(i18n.MsgShowingCached, len(listing.Recipes)))
			}
			if len(listing.Recipes) == 0 {
				fmt.Fprintln(out, "No recipes")
				return nil
			}
			folderNames := map[string]string{}
			if folders, err := rt.orch.Folders(cmd.Context()); err == nil {
				for _, f := range folders {
					folderNames[f.ID] = f.Name
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Servings", "Favorite", "Folder", "Status", "Created"},
				recipeRows(listing.Recipes, folderNames),
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.FolderID, "folder", "", "Only recipes in this folder")
	cmd.Flags().BoolVar(&filter.Uncategorized, "uncategorized", false, "Only recipes outside every folder")
	cmd.Flags().BoolVar(&filter.FavoritesOnly, "favorites", false, "Only favorites")
	cmd.Flags().StringVar(&status, "status", "", "Only recipes with this approval status")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Case-insensitive title or text search")
	return cmd
}

func newRecipesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			r, err := rt.orch.Recipe(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", r.EffectiveTitle())
			fmt.Fprintf(out, "ID:       %s\n", r.ID)
			fmt.Fprintf(out, "Servings: %d\n", r.Servings)
			fmt.Fprintf(out, "Favorite: %s\n", yesNo(r.Favorite))
			if r.Status != "" {
				fmt.Fprintf(out, "Status:   %s\n", r.Status)
			}
			if created := relativeTime(r.CreatedAt); created != "" {
				fmt.Fprintf(out, "Created:  %s\n", created)
			}
			fmt.Fprintf(out, "\n%s\n", r.Analysis)
			return nil
		},
	}
}

// readText returns the contents of path, or stdin for "-" or "".
func readText(cmd *cobra.Command, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func newRecipesAddCommand(ctx *commandContext) *cobra.Command {
	var entry recipe.ManualEntry
	var textFlag string

	cmd := &cobra.Command{
		Use:   "add [file|-]",
		Short: "Save a typed-in recipe",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			entry.Text = textFlag
			if entry.Text == "" {
				source := ""
				if len(args) == 1 {
					source = args[0]
				}
				if entry.Text, err = readText(cmd, source); err != nil {
					return err
				}
			}
			created, err := rt.orch.SaveManualRecipe(cmd.Context(), entry)
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved recipe %s: %s\n", created.ID, created.DisplayTitle())
			return nil
		},
	}
	cmd.Flags().StringVar(&entry.Title, "title", "", "Recipe title (default: first line of the text)")
	cmd.Flags().StringVar(&textFlag, "text", "", "Recipe text (default: read from file or stdin)")
	cmd.Flags().IntVarP(&entry.Servings, "servings", "s", 0, "Servings the recipe is written for")
	return cmd
}

func newRecipesEditCommand(ctx *commandContext) *cobra.Command {
	var title, textFlag, file string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the title and text of a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			text := textFlag
			if text == "" {
				if text, err = readText(cmd, file); err != nil {
					return err
				}
			}
			updated, err := rt.orch.UpdateRecipe(cmd.Context(), recipe.Edit{ID: args[0], Title: title, Text: text})
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated recipe %s\n", updated.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title (default: first line of the text)")
	cmd.Flags().StringVar(&textFlag, "text", "", "New recipe text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the new text from a file (default: stdin)")
	return cmd
}

func newRecipesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recipe",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.orch.DeleteRecipe(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %s\n", args[0])
			return nil
		},
	}
}

func newRecipesFavoriteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := rt.orch.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s favorite: %s\n", updated.DisplayTitle(), yesNo(updated.Favorite))
			return nil
		},
	}
}

func newRecipesMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> [folder-id]",
		Short: "File a recipe into a folder, or remove it from its folder",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			folderID := ""
			if len(args) == 2 {
				folderID = args[1]
			}
			updated, err := rt.orch.MoveToFolder(cmd.Context(), args[0], folderID)
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, updated)
			}
			if folderID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from its folder\n", updated.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to folder %s\n", updated.ID, folderID)
			}
			return nil
		},
	}
}

func newRecipesApproveCommand(ctx *commandContext) *cobra.Command {
	var reject bool

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve (or with --reject, reject) a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			status := recipe.StatusApproved
			if reject {
				status = recipe.StatusRejected
			}
			snap, err := rt.orch.ApproveRecipe(cmd.Context(), args[0], status)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.ApprovalMessage)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "Reject instead of approve")
	return cmd
}

func newRecipesImagesCommand(ctx *commandContext) *cobra.Command {
	var add string

	cmd := &cobra.Command{
		Use:   "images <id>",
		Short: "List or add extra photos of a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			var images []string
			if strings.TrimSpace(add) != "" {
				path, err := config.ExpandPath(add)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				uri, err := imagestore.EncodeDataURI(data)
				if err != nil {
					return userError(err)
				}
				if images, err = rt.orch.AddAuxImage(cmd.Context(), args[0], uri); err != nil {
					return userError(err)
				}
			} else if images, err = rt.orch.AuxImages(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, images)
			}
			rows := make([][]string, 0, len(images))
			for i, image := range images {
				kind := "url"
				size := ""
				if parsed, err := imagestore.ParseDataURI(image); err == nil {
					kind = parsed.MIME
					size = fmt.Sprintf("%d bytes", len(parsed.Data))
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), kind, size})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Type", "Size"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&add, "add", "", "Attach this image file")
	return cmd
}

func newRecipesCommentsCommand(ctx *commandContext) *cobra.Command {
	var add string

	cmd := &cobra.Command{
		Use:   "comments <id>",
		Short: "List or add comments on a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			remote := rt.community()
			if remote == nil {
				return fmt.Errorf("comments need a recipe backend; set backend.base_url")
			}
			if strings.TrimSpace(add) != "" {
				if _, err := remote.AddComment(cmd.Context(), args[0], add); err != nil {
					return userError(err)
				}
			}
			comments, err := remote.ListComments(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, comments)
			}
			rows := make([][]string, 0, len(comments))
			for _, c := range comments {
				rows = append(rows, []string{c.UserID, relativeTime(c.CreatedAt), c.Body})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"User", "When", "Comment"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&add, "add", "", "Post this comment first")
	return cmd
}
