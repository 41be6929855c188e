package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

func TestSimilarRecipesRanksLibrary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	texts := []string{
		"Tomato Soup\n6 tomatoes\nbasil\ngarlic\nonion",
		"Tomato Salad\n4 tomatoes\nmozzarella\nbasil",
		"Chocolate Cake\nsugar\ncocoa\nbutter",
		"Pancakes\nflour\nmilk\neggs",
	}
	ids := make([]string, len(texts))
	for i, text := range texts {
		created, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: text})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		ids[i] = created.ID
	}
	target, err := h.orc.SaveManualRecipe(ctx, recipe.ManualEntry{Text: "Grandma's Tomato Soup\n10 tomatoes\nfresh basil\ngarlic\nonion"})
	if err != nil {
		t.Fatalf("seed target: %v", err)
	}

	similar, err := h.orc.SimilarRecipes(ctx, target.ID, 0)
	if err != nil {
		t.Fatalf("SimilarRecipes: %v", err)
	}
	if len(similar) == 0 || similar[0].Recipe.ID != ids[0] {
		t.Fatalf("expected tomato soup first, got %+v", similar)
	}
	for _, s := range similar {
		if s.Recipe.ID == target.ID {
			t.Fatal("recipe must not match itself")
		}
		if s.Recipe.ID == ids[2] || s.Recipe.ID == ids[3] {
			t.Fatalf("unrelated recipe matched: %+v", s)
		}
	}

	limited, err := h.orc.SimilarRecipes(ctx, target.ID, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit not applied: %+v err=%v", limited, err)
	}
}

func TestSimilarRecipesValidatesID(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orc.SimilarRecipes(context.Background(), " ", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := h.orc.SimilarRecipes(context.Background(), "missing", 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
