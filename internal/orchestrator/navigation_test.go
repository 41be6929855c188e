package orchestrator_test

import (
	"context"
	"testing"

	"recipebox/internal/recipe"
)

func TestGoBackFlattensFromSecondaryViews(t *testing.T) {
	for _, view := range []recipe.View{recipe.ViewArchive, recipe.ViewUsers, recipe.ViewManualRecipes} {
		t.Run(string(view), func(t *testing.T) {
			h := newHarness(t)
			_ = h.orc.ChangeView(recipe.ViewLibrary)
			_ = h.orc.ChangeView(recipe.ViewAnalyze)
			_ = h.orc.ChangeView(view)
			if got := h.orc.GoBack(); got != recipe.ViewHome {
				t.Fatalf("GoBack from %s = %s, want home", view, got)
			}
			snap := h.orc.Snapshot()
			if snap.View != recipe.ViewHome || len(snap.History) != 0 {
				t.Fatalf("expected home with empty history, got %s %v", snap.View, snap.History)
			}
		})
	}
}

func TestGoBackFromAnalyzeReturnsToLauncher(t *testing.T) {
	cases := []struct {
		launcher recipe.View
		want     recipe.View
	}{
		{recipe.ViewLibrary, recipe.ViewLibrary},
		{recipe.ViewArchive, recipe.ViewArchive},
		{recipe.ViewUsers, recipe.ViewHome},
	}
	for _, tc := range cases {
		t.Run(string(tc.launcher), func(t *testing.T) {
			h := newHarness(t)
			_ = h.orc.ChangeView(tc.launcher)
			_ = h.orc.ChangeView(recipe.ViewAnalyze)
			if got := h.orc.GoBack(); got != tc.want {
				t.Fatalf("GoBack = %s, want %s", got, tc.want)
			}
			snap := h.orc.Snapshot()
			if len(snap.History) != 1 || snap.History[0] != recipe.ViewHome {
				t.Fatalf("expected history reset to home, got %v", snap.History)
			}
		})
	}
}

func TestGoBackFromAnalyzeClearsApprovalBanner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.store.SaveSession(ctx, sessionWithRole(recipe.RoleAdmin))
	created, err := h.persistence.CreateRecipe(ctx, recipe.Record{Analysis: "Stew\nServes 2"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = h.orc.ChangeView(recipe.ViewLibrary)
	h.orc.SelectRecipe(created)

	snap, err := h.orc.ApproveRecipe(ctx, created.ID, recipe.StatusApproved)
	if err != nil {
		t.Fatalf("ApproveRecipe: %v", err)
	}
	if snap.ApprovalMessage != "Recipe approved: Stew" {
		t.Fatalf("unexpected banner %q", snap.ApprovalMessage)
	}
	h.orc.GoBack()
	if msg := h.orc.Snapshot().ApprovalMessage; msg != "" {
		t.Fatalf("expected banner cleared, got %q", msg)
	}
}

func TestGoBackUsesSingleSlotHistory(t *testing.T) {
	h := newHarness(t)
	_ = h.orc.ChangeView(recipe.ViewLibrary)
	_ = h.orc.ChangeView(recipe.ViewHome)
	_ = h.orc.ChangeView(recipe.ViewLibrary)
	snap := h.orc.Snapshot()
	if len(snap.History) != 1 || snap.History[0] != recipe.ViewHome {
		t.Fatalf("expected bounded history [home], got %v", snap.History)
	}
	if got := h.orc.GoBack(); got != recipe.ViewHome {
		t.Fatalf("GoBack = %s, want home", got)
	}
	if got := h.orc.GoBack(); got != recipe.ViewHome {
		t.Fatalf("GoBack with empty history = %s, want home", got)
	}
}

func TestChangeViewToSameViewKeepsHistory(t *testing.T) {
	h := newHarness(t)
	_ = h.orc.ChangeView(recipe.ViewLibrary)
	_ = h.orc.ChangeView(recipe.ViewLibrary)
	snap := h.orc.Snapshot()
	if len(snap.History) != 1 || snap.History[0] != recipe.ViewHome {
		t.Fatalf("unexpected history %v", snap.History)
	}
	if err := h.orc.ChangeView("kitchen"); err == nil {
		t.Fatal("expected unknown view to be rejected")
	}
}
