package orchestrator

import (
	"context"
	"strings"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/textutil"
)

const (
	defaultSimilarLimit = 5
	minSimilarScore     = 0.15
)

// SimilarRecipe is a library entry resembling another recipe.
type SimilarRecipe struct {
	Recipe recipe.Record `json:"recipe"`
	Score  float64       `json:"score"`
}

// SimilarRecipes ranks the library against the recipe with id, best match
// first. The recipe itself is never included.
func (o *Orchestrator) SimilarRecipes(ctx context.Context, id string, limit int) ([]SimilarRecipe, error) {
	const op = "similar recipes"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "orchestrator", op, "recipe id required", nil)
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	target, err := o.findRecipe(ctx, op, id)
	if err != nil {
		return nil, err
	}
	listing, err := o.Recipes(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	candidates := make([]recipe.Record, 0, len(listing.Recipes))
	docs := make([]string, 0, len(listing.Recipes))
	for _, r := range listing.Recipes {
		if r.ID == target.ID {
			continue
		}
		candidates = append(candidates, r)
		docs = append(docs, recipeDocument(r))
	}

	matches := textutil.Rank(recipeDocument(target), docs, minSimilarScore, limit)
	out := make([]SimilarRecipe, 0, len(matches))
	for _, m := range matches {
		out = append(out, SimilarRecipe{Recipe: candidates[m.Index], Score: m.Score})
	}
	return out, nil
}

func recipeDocument(r recipe.Record) string {
	return r.EffectiveTitle() + "\n" + r.Analysis
}
