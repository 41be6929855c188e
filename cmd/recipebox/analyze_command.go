package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recipebox/internal/config"
	"recipebox/internal/orchestrator"
	"recipebox/internal/services"
	"recipebox/internal/services/imagestore"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var servings int

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a recipe photo and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			uri, err := imagestore.EncodeDataURI(data)
			if err != nil {
				return fmt.Errorf("%s", services.UserMessage(err))
			}

			stop := showProgress(cmd.ErrOrStderr(), rt.orch)
			snap, err := rt.orch.StartAnalysis(cmd.Context(), uri, servings)
			stop()
			if err != nil {
				return fmt.Errorf("analysis failed: %s", services.UserMessage(err))
			}
			rt.waitIdle(cmd.Context())
			snap = rt.orch.Snapshot()

			if ctx.jsonOutput() {
				return writeJSON(cmd, snap.Slot)
			}
			printSlot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().IntVarP(&servings, "servings", "s", 0, "Servings to write the recipe for (default: last used)")
	return cmd
}

func newRescaleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescale <recipe-id> <servings>",
		Short: "Rewrite a stored recipe for a different number of servings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("servings must be a number: %q", args[1])
			}
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := rt.orch.OpenRecipe(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s", services.UserMessage(err))
			}
			if _, err := rt.orch.RequestServingsRescale(cmd.Context(), n); err != nil {
				return fmt.Errorf("rescale failed: %s", services.UserMessage(err))
			}
			rt.waitIdle(cmd.Context())
			snap := rt.orch.Snapshot()
			if ctx.jsonOutput() {
				return writeJSON(cmd, snap.Slot)
			}
			printSlot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func printSlot(out io.Writer, snap orchestrator.Snapshot) {
	slot := snap.Slot
	if slot.RecipeID != "" {
		fmt.Fprintf(out, "Recipe %s: %s\n", slot.RecipeID, snap.DisplayTitle)
	} else {
		fmt.Fprintf(out, "Recipe (unsaved): %s\n", snap.DisplayTitle)
	}
	fmt.Fprintf(out, "Servings: %d\n\n", slot.Servings.Current)
	fmt.Fprintln(out, slot.Analysis)
}

// showProgress renders the analysis progress on interactive terminals and
// returns a function that stops and clears it.
func showProgress(out io.Writer, orch *orchestrator.Orchestrator) func() {
	if !isInteractive(out) {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(150 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Fprint(out, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(out, "\rAnalyzing... %3.0f%%", orch.Snapshot().Progress*100)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
