package orchestrator

import (
	"context"
	"strings"

	"recipebox/internal/logging"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

// SelectRecipe loads a persisted record into the active slot and switches to
// the analyze view. Servings come from the text, or default to 2.
func (o *Orchestrator) SelectRecipe(r recipe.Record) Snapshot {
	n := recipe.ServingsOrDefault(r.Analysis)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.loading = false
	o.state.rescaling = false
	o.state.progress = 0
	o.state.replaceSlot(Slot{
		RecipeID:  r.ID,
		UserID:    r.UserID,
		Image:     r.Image,
		Analysis:  r.Analysis,
		Title:     r.EffectiveTitle(),
		CreatedAt: r.CreatedAt,
		Servings:  recipe.Uniform(n),
	})
	o.transitionLocked(recipe.ViewAnalyze, true)
	o.logger.Debug("recipe selected", logging.RecipeID(r.ID), logging.Int("servings", n))
	return o.state.snapshot()
}

// OpenRecipe fetches a record by id and selects it.
func (o *Orchestrator) OpenRecipe(ctx context.Context, id string) (Snapshot, error) {
	const op = "open recipe"
	id = strings.TrimSpace(id)
	if id == "" {
		return o.Snapshot(), services.Wrap(services.ErrValidation, "orchestrator", op, "recipe id required", nil)
	}
	r, err := o.findRecipe(ctx, op, id)
	if err != nil {
		return o.Snapshot(), err
	}
	return o.SelectRecipe(r), nil
}

// Recipe looks a record up by id without selecting it.
func (o *Orchestrator) Recipe(ctx context.Context, id string) (recipe.Record, error) {
	const op = "get recipe"
	id = strings.TrimSpace(id)
	if id == "" {
		return recipe.Record{}, services.Wrap(services.ErrValidation, "orchestrator", op, "recipe id required", nil)
	}
	return o.findRecipe(ctx, op, id)
}

// ResetForNewRecipe clears the active slot without persisting anything.
func (o *Orchestrator) ResetForNewRecipe() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.loading = false
	o.state.rescaling = false
	o.state.progress = 0
	o.state.replaceSlot(Slot{Servings: recipe.DefaultServingsPair()})
	return o.state.snapshot()
}

// findRecipe asks persistence first and falls back to the local cache.
func (o *Orchestrator) findRecipe(ctx context.Context, op, id string) (recipe.Record, error) {
	if o.persistence != nil {
		r, err := o.persistence.GetRecipe(ctx, id)
		if err == nil {
			return r, nil
		}
		if o.store == nil {
			return recipe.Record{}, err
		}
		o.logger.Debug("recipe lookup fell back to cache", logging.RecipeID(id), logging.Error(err))
	}
	if err := o.requireStore(op); err != nil {
		return recipe.Record{}, err
	}
	metas, err := o.store.RecipeMeta(ctx)
	if err != nil {
		return recipe.Record{}, err
	}
	for _, meta := range metas {
		if meta.ID == id {
			return meta.Record(), nil
		}
	}
	return recipe.Record{}, services.Wrap(services.ErrNotFound, "orchestrator", op, "recipe "+id+" not found", nil)
}
