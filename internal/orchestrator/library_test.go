package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"recipebox/internal/notifications"
	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/testsupport"
)

func TestSelectRecipeExtractsServings(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"Gulasch\nZutaten für 8 Personen", 8},
		{"Pancakes\nServes 3", 3},
		{"Risotto\n6 Portionen", 6},
		{"Toast\nno count here", recipe.DefaultServings},
		{"Feast\nServes 500", recipe.DefaultServings},
	}
	for _, tc := range cases {
		h := newHarness(t)
		_ = h.orc.ChangeView(recipe.ViewArchive)
		snap := h.orc.SelectRecipe(recipe.Record{ID: "r1", UserID: "u1", Analysis: tc.text})
		if snap.Slot.Servings != recipe.Uniform(tc.want) {
			t.Fatalf("%q: got %+v want %d", tc.text, snap.Slot.Servings, tc.want)
		}
		if snap.View != recipe.ViewAnalyze || snap.Launcher != recipe.ViewArchive {
			t.Fatalf("%q: unexpected view %s launcher %s", tc.text, snap.View, snap.Launcher)
		}
		if snap.Slot.RecipeID != "r1" || snap.Slot.UserID != "u1" {
			t.Fatalf("%q: ids not loaded: %+v", tc.text, snap.Slot)
		}
	}
}

func TestResetForNewRecipe(t *testing.T) {
	h := newHarness(t)
	h.orc.SelectRecipe(recipe.Record{ID: "r1", Analysis: "Soup\nServes 5", Image: "https://x/y.png"})
	snap := h.orc.ResetForNewRecipe()
	if snap.Slot.RecipeID != "" || snap.Slot.Analysis != "" || snap.Slot.Image != "" {
		t.Fatalf("expected cleared slot, got %+v", snap.Slot)
	}
	if snap.Slot.Servings != recipe.DefaultServingsPair() {
		t.Fatalf("expected default servings, got %+v", snap.Slot.Servings)
	}
	if h.persistence.createdCount() != 0 {
		t.Fatal("reset must not persist")
	}
}

func TestDeleteRecipeRemovesAuxImages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "Crepes\nServes 4"})
	if err != nil {
		t.Fatalf("SaveManualRecipe: %v", err)
	}
	if _, err := h.orc.AddAuxImage(ctx, created.ID, testsupport.PNGDataURI()); err != nil {
		t.Fatalf("AddAuxImage: %v", err)
	}
	h.orc.SelectRecipe(created)

	if err := h.orc.DeleteRecipe(ctx, created.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	images, err := h.orc.AuxImages(ctx, created.ID)
	if err != nil {
		t.Fatalf("AuxImages: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected aux images removed, got %d", len(images))
	}
	if snap := h.orc.Snapshot(); snap.Slot.RecipeID != "" {
		t.Fatalf("expected active slot cleared, got %q", snap.Slot.RecipeID)
	}
	if !h.notifier.has(notifications.EventRecipeDeleted) {
		t.Fatal("expected delete toast")
	}
}

func TestDeleteFailureKeepsAuxImages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "Crepes"})
	if err != nil {
		t.Fatalf("SaveManualRecipe: %v", err)
	}
	if _, err := h.orc.AddAuxImage(ctx, created.ID, testsupport.PNGDataURI()); err != nil {
		t.Fatalf("AddAuxImage: %v", err)
	}
	h.persistence.setFail(errBackendDown)
	if err := h.orc.DeleteRecipe(ctx, created.ID); !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected backend error, got %v", err)
	}
	images, _ := h.orc.AuxImages(ctx, created.ID)
	if len(images) != 1 {
		t.Fatalf("expected aux images kept, got %d", len(images))
	}
	if !h.notifier.has(notifications.EventDeleteFailed) {
		t.Fatal("expected delete failure toast")
	}
}

func TestSaveManualRecipeValidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "   "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "x", Servings: 200}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected servings validation error, got %v", err)
	}
	created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "## Lemonade\nfür 10 Personen"})
	if err != nil {
		t.Fatalf("SaveManualRecipe: %v", err)
	}
	if created.Title != "Lemonade" || created.Servings != 10 {
		t.Fatalf("unexpected record %+v", created)
	}
}

func TestRecipesFallsBackToCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, text := range []string{"Alpha", "Beta"} {
		if _, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: text}); err != nil {
			t.Fatalf("seed %s: %v", text, err)
		}
	}
	listing, err := h.orc.Recipes(ctx, orchestrator.Filter{})
	if err != nil || listing.Cached || len(listing.Recipes) != 2 {
		t.Fatalf("unexpected listing %+v err=%v", listing, err)
	}

	h.persistence.setFail(errBackendDown)
	listing, err = h.orc.Recipes(ctx, orchestrator.Filter{Query: "beta"})
	if err != nil {
		t.Fatalf("expected cache fallback, got %v", err)
	}
	if !listing.Cached || len(listing.Recipes) != 1 || listing.Recipes[0].Title != "Beta" {
		t.Fatalf("unexpected cached listing %+v", listing)
	}
	if !h.notifier.has(notifications.EventLoadFailed) || !h.notifier.has(notifications.EventShowingCached) {
		t.Fatal("expected load failure and cache toasts")
	}
}

func TestFoldersFavoritesAndMoves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "Brownies"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	folder, err := h.orc.CreateFolder(ctx, recipe.FolderInput{Name: "Desserts", Color: "#ff8800"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := h.orc.CreateFolder(ctx, recipe.FolderInput{Name: "desserts"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected duplicate folder rejection, got %v", err)
	}
	if _, err := h.orc.CreateFolder(ctx, recipe.FolderInput{Name: "Bad", Color: "orange"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected color validation, got %v", err)
	}

	moved, err := h.orc.MoveToFolder(ctx, created.ID, folder.ID)
	if err != nil || moved.FolderID != folder.ID {
		t.Fatalf("MoveToFolder: %+v err=%v", moved, err)
	}
	if _, err := h.orc.MoveToFolder(ctx, created.ID, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected unknown folder error, got %v", err)
	}
	fav, err := h.orc.ToggleFavorite(ctx, created.ID)
	if err != nil || !fav.Favorite {
		t.Fatalf("ToggleFavorite: %+v err=%v", fav, err)
	}

	listing, _ := h.orc.Recipes(ctx, orchestrator.Filter{FolderID: folder.ID, FavoritesOnly: true})
	if len(listing.Recipes) != 1 {
		t.Fatalf("expected recipe in folder, got %d", len(listing.Recipes))
	}

	if err := h.orc.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	listing, _ = h.orc.Recipes(ctx, orchestrator.Filter{Uncategorized: true})
	if len(listing.Recipes) != 1 || listing.Recipes[0].FolderID != "" {
		t.Fatalf("expected recipe uncategorized after folder delete, got %+v", listing.Recipes)
	}
	folders, _ := h.orc.Folders(ctx)
	if len(folders) != 0 {
		t.Fatalf("expected no folders, got %d", len(folders))
	}
}

func TestUpdateRecipeFollowsActiveSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "Old\nServes 2"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.orc.SelectRecipe(created)
	if _, err := h.orc.UpdateRecipe(ctx, recipe.Edit{ID: created.ID, Text: "New\nServes 5"}); err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}
	snap := h.orc.Snapshot()
	if snap.Slot.Title != "New" || snap.Slot.Servings != recipe.Uniform(5) {
		t.Fatalf("expected slot to follow edit, got %+v", snap.Slot)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.store.SaveSession(ctx, sessionWithRole(recipe.RoleWorker))
	if _, err := h.orc.ApproveRecipe(ctx, "r1", recipe.StatusApproved); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if len(h.approver.calls) != 0 {
		t.Fatal("approver must not be called for workers")
	}
	_ = h.store.SaveSession(ctx, sessionWithRole(recipe.RoleAdmin))
	if _, err := h.orc.ApproveRecipe(ctx, "r1", recipe.StatusPending); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected status validation error, got %v", err)
	}
	snap, err := h.orc.ApproveRecipe(ctx, "r1", recipe.StatusRejected)
	if err != nil {
		t.Fatalf("ApproveRecipe: %v", err)
	}
	if h.approver.calls["r1"] != recipe.StatusRejected {
		t.Fatalf("unexpected approver calls %v", h.approver.calls)
	}
	if snap.ApprovalMessage != "Recipe rejected: r1" {
		t.Fatalf("unexpected banner %q", snap.ApprovalMessage)
	}
}

func TestApproveWithoutSessionStoreFailsClosed(t *testing.T) {
	approver := &fakeApprover{}
	orc := orchestrator.New(orchestrator.Dependencies{Approver: approver})
	t.Cleanup(orc.Close)
	if _, err := orc.ApproveRecipe(context.Background(), "r1", recipe.StatusApproved); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(approver.calls) != 0 {
		t.Fatal("approver must not be called without a session")
	}
}
