package backend

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

// MetaStore is the subset of the on-device store Local depends on.
type MetaStore interface {
	RecipeMeta(ctx context.Context) ([]recipe.Meta, error)
	UpsertRecipeMeta(ctx context.Context, meta recipe.Meta) error
	RemoveRecipeMeta(ctx context.Context, id string) error
}

// Local stores recipes in the on-device metadata cache. Data URI images are
// not retained.
type Local struct {
	store MetaStore
	now   func() time.Time
}

// NewLocal wraps store.
func NewLocal(store MetaStore) *Local {
	return &Local{store: store, now: time.Now}
}

// CreateRecipe assigns an id and creation time when missing.
func (l *Local) CreateRecipe(ctx context.Context, r recipe.Record) (recipe.Record, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.now().UTC()
	}
	if r.Status == "" {
		r.Status = recipe.StatusPending
	}
	r.Title = r.EffectiveTitle()
	if err := l.store.UpsertRecipeMeta(ctx, recipe.MetaOf(r)); err != nil {
		return recipe.Record{}, err
	}
	return recipe.MetaOf(r).Record(), nil
}

// ListRecipes returns the cached recipes, newest first.
func (l *Local) ListRecipes(ctx context.Context) ([]recipe.Record, error) {
	metas, err := l.store.RecipeMeta(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]recipe.Record, 0, len(metas))
	for _, meta := range metas {
		records = append(records, meta.Record())
	}
	return records, nil
}

// GetRecipe looks up one cached recipe.
func (l *Local) GetRecipe(ctx context.Context, id string) (recipe.Record, error) {
	metas, err := l.store.RecipeMeta(ctx)
	if err != nil {
		return recipe.Record{}, err
	}
	for _, meta := range metas {
		if meta.ID == id {
			return meta.Record(), nil
		}
	}
	return recipe.Record{}, services.Wrap(services.ErrNotFound, "backend", "get recipe", "recipe "+id+" not found", nil)
}

// UpdateRecipe applies patch to the cached recipe.
func (l *Local) UpdateRecipe(ctx context.Context, id string, patch RecipePatch) (recipe.Record, error) {
	current, err := l.GetRecipe(ctx, id)
	if err != nil {
		return recipe.Record{}, err
	}
	updated := patch.Apply(current)
	if err := l.store.UpsertRecipeMeta(ctx, recipe.MetaOf(updated)); err != nil {
		return recipe.Record{}, err
	}
	return updated, nil
}

// DeleteRecipe removes the cached recipe.
func (l *Local) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := l.GetRecipe(ctx, id); err != nil {
		return err
	}
	return l.store.RemoveRecipeMeta(ctx, id)
}

// Apply returns r with the patch's set fields copied over.
func (p RecipePatch) Apply(r recipe.Record) recipe.Record {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Analysis != nil {
		r.Analysis = *p.Analysis
	}
	if p.Favorite != nil {
		r.Favorite = *p.Favorite
	}
	if p.FolderID != nil {
		r.FolderID = *p.FolderID
	}
	if p.Servings != nil {
		r.Servings = *p.Servings
	}
	return r
}
