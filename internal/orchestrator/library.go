package orchestrator

import (
	"context"
	"strings"

	"recipebox/internal/i18n"
	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/backend"
)

// Listing is the library content shown to the user.
type Listing struct {
	Recipes []recipe.Record `json:"recipes"`
	// Cached is true when the list came from the local cache after a
	// persistence failure.
	Cached bool `json:"cached"`
}

// Filter narrows a listing.
type Filter struct {
	FolderID      string
	Uncategorized bool
	FavoritesOnly bool
	Status        recipe.Status
	Query         string
}

// Apply returns the records matching f, preserving order.
func (f Filter) Apply(records []recipe.Record) []recipe.Record {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]recipe.Record, 0, len(records))
	for _, r := range records {
		switch {
		case f.FolderID != "" && r.FolderID != f.FolderID:
			continue
		case f.Uncategorized && !r.Uncategorized():
			continue
		case f.FavoritesOnly && !r.Favorite:
			continue
		case f.Status != "" && recipe.ParseStatus(string(r.Status)) != f.Status:
			continue
		case query != "" && !strings.Contains(strings.ToLower(r.EffectiveTitle()+"\n"+r.Analysis), query):
			continue
		}
		out = append(out, r)
	}
	return out
}

// Recipes lists the library. When persistence fails the cached metadata is
// returned instead and the user is told so.
func (o *Orchestrator) Recipes(ctx context.Context, filter Filter) (Listing, error) {
	const op = "list recipes"
	if o.persistence != nil {
		records, err := o.persistence.ListRecipes(ctx)
		if err == nil {
			return Listing{Recipes: filter.Apply(records)}, nil
		}
		logging.WarnWithContext(o.logger, "recipe list unavailable; using cache", "recipes_load_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "library shows cached metadata"),
		)
		o.notify(ctx, notifications.EventLoadFailed, notifications.Payload{"error": services.UserMessage(err)})
		if o.store == nil {
			return Listing{}, err
		}
	}
	if err := o.requireStore(op); err != nil {
		return Listing{}, err
	}
	metas, err := o.store.RecipeMeta(ctx)
	if err != nil {
		return Listing{}, services.Wrap(services.ErrTransient, "orchestrator", op, "read cache", err)
	}
	records := make([]recipe.Record, 0, len(metas))
	for _, meta := range metas {
		records = append(records, meta.Record())
	}
	if o.persistence != nil {
		o.notify(ctx, notifications.EventShowingCached, notifications.Payload{"count": len(records)})
	}
	return Listing{Recipes: filter.Apply(records), Cached: o.persistence != nil}, nil
}

// SaveManualRecipe validates and stores a typed-in recipe. The title is
// derived from the text when empty.
func (o *Orchestrator) SaveManualRecipe(ctx context.Context, entry recipe.ManualEntry) (recipe.Record, error) {
	const op = "save manual recipe"
	entry.Title = strings.TrimSpace(entry.Title)
	entry.Text = strings.TrimSpace(entry.Text)
	if err := recipe.Validate(op, entry); err != nil {
		return recipe.Record{}, err
	}
	if err := o.requirePersistence(op); err != nil {
		return recipe.Record{}, err
	}
	servings := entry.Servings
	if servings == 0 {
		servings = recipe.ServingsOrDefault(entry.Text)
	}
	record := recipe.Record{
		UserID:    o.sessionUser(ctx),
		Title:     entry.Title,
		Analysis:  entry.Text,
		CreatedAt: o.now().UTC(),
		Status:    recipe.StatusPending,
		Servings:  servings,
	}
	record.Title = record.EffectiveTitle()
	created, err := o.persistence.CreateRecipe(ctx, record)
	if err != nil {
		o.notify(ctx, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
		return recipe.Record{}, err
	}
	o.logger.Info("manual recipe saved", logging.RecipeID(created.ID))
	o.notify(ctx, notifications.EventRecipeSaved, notifications.Payload{"title": created.DisplayTitle()})
	return created, nil
}

// UpdateRecipe replaces the title and text of a stored recipe. The active
// slot follows when it holds the same recipe.
func (o *Orchestrator) UpdateRecipe(ctx context.Context, edit recipe.Edit) (recipe.Record, error) {
	const op = "update recipe"
	edit.ID = strings.TrimSpace(edit.ID)
	edit.Title = strings.TrimSpace(edit.Title)
	edit.Text = strings.TrimSpace(edit.Text)
	if err := recipe.Validate(op, edit); err != nil {
		return recipe.Record{}, err
	}
	if err := o.requirePersistence(op); err != nil {
		return recipe.Record{}, err
	}
	title := edit.Title
	if title == "" {
		title = recipe.DeriveTitle(edit.Text)
	}
	updated, err := o.persistence.UpdateRecipe(ctx, edit.ID, backend.RecipePatch{Title: &title, Analysis: &edit.Text})
	if err != nil {
		o.notify(ctx, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
		return recipe.Record{}, err
	}

	o.mu.Lock()
	if o.state.slot.RecipeID == edit.ID {
		o.state.slot.Title = title
		o.state.slot.Analysis = edit.Text
		o.state.slot.Servings = recipe.Uniform(recipe.ServingsOrDefault(edit.Text))
	}
	o.mu.Unlock()

	o.notify(ctx, notifications.EventRecipeUpdated, notifications.Payload{"title": recipe.DisplayTitle(title)})
	return updated, nil
}

// ToggleFavorite flips the favorite flag of a recipe.
func (o *Orchestrator) ToggleFavorite(ctx context.Context, id string) (recipe.Record, error) {
	const op = "toggle favorite"
	if err := o.requirePersistence(op); err != nil {
		return recipe.Record{}, err
	}
	current, err := o.findRecipe(ctx, op, id)
	if err != nil {
		return recipe.Record{}, err
	}
	favorite := !current.Favorite
	updated, err := o.persistence.UpdateRecipe(ctx, id, backend.RecipePatch{Favorite: &favorite})
	if err != nil {
		o.notify(ctx, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
		return recipe.Record{}, err
	}
	updated.Favorite = favorite
	o.notify(ctx, notifications.EventFavoriteChanged, notifications.Payload{
		"title":    current.DisplayTitle(),
		"favorite": favorite,
	})
	return updated, nil
}

// MoveToFolder files a recipe under folderID; "" makes it uncategorized.
func (o *Orchestrator) MoveToFolder(ctx context.Context, id, folderID string) (recipe.Record, error) {
	const op = "move recipe"
	folderID = strings.TrimSpace(folderID)
	if err := o.requirePersistence(op); err != nil {
		return recipe.Record{}, err
	}
	folderName := ""
	if folderID != "" {
		folder, err := o.folder(ctx, op, folderID)
		if err != nil {
			return recipe.Record{}, err
		}
		folderName = folder.Name
	}
	current, err := o.findRecipe(ctx, op, id)
	if err != nil {
		return recipe.Record{}, err
	}
	updated, err := o.persistence.UpdateRecipe(ctx, id, backend.RecipePatch{FolderID: &folderID})
	if err != nil {
		o.notify(ctx, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
		return recipe.Record{}, err
	}
	updated.FolderID = folderID
	o.notify(ctx, notifications.EventRecipeMoved, notifications.Payload{
		"title":  current.DisplayTitle(),
		"folder": folderName,
	})
	return updated, nil
}

// DeleteRecipe removes a recipe, its cached auxiliary images and its uploaded
// photo. The active slot is cleared when it holds the deleted recipe.
func (o *Orchestrator) DeleteRecipe(ctx context.Context, id string) error {
	const op = "delete recipe"
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "orchestrator", op, "recipe id required", nil)
	}
	if err := o.requirePersistence(op); err != nil {
		return err
	}
	existing, lookupErr := o.findRecipe(ctx, op, id)
	if err := o.persistence.DeleteRecipe(ctx, id); err != nil {
		o.notify(ctx, notifications.EventDeleteFailed, notifications.Payload{"error": services.UserMessage(err)})
		return err
	}
	if o.store != nil {
		if err := o.store.DeleteAuxImages(ctx, id); err != nil {
			logging.WarnWithContext(o.logger, "auxiliary images not removed", "aux_images_cleanup_failed",
				logging.Error(err),
				logging.RecipeID(id),
			)
		}
	}
	if o.images != nil && lookupErr == nil && existing.Image != "" {
		if err := o.images.Delete(ctx, existing.Image); err != nil {
			o.logger.Debug("uploaded image not removed", logging.RecipeID(id), logging.Error(err))
		}
	}

	o.mu.Lock()
	if o.state.slot.RecipeID == id {
		o.state.replaceSlot(Slot{Servings: recipe.DefaultServingsPair()})
	}
	o.mu.Unlock()

	title := id
	if lookupErr == nil {
		title = existing.DisplayTitle()
	}
	o.logger.Info("recipe deleted", logging.RecipeID(id))
	o.notify(ctx, notifications.EventRecipeDeleted, notifications.Payload{"title": title})
	return nil
}

// ApproveRecipe records an approval decision. Only admins may approve; the
// outcome is shown as a banner until the analyze view is left.
func (o *Orchestrator) ApproveRecipe(ctx context.Context, id string, status recipe.Status) (Snapshot, error) {
	const op = "approve recipe"
	if o.approver == nil {
		return o.Snapshot(), services.Wrap(services.ErrConfiguration, "orchestrator", op, "approvals need a backend", nil)
	}
	if status != recipe.StatusApproved && status != recipe.StatusRejected {
		return o.Snapshot(), services.Wrap(services.ErrValidation, "orchestrator", op, "status must be approved or rejected", nil)
	}
	if o.store == nil {
		return o.Snapshot(), services.Wrap(services.ErrConfiguration, "orchestrator", op, "approvals need a signed-in session", nil)
	}
	session, err := o.store.Session(ctx)
	if err != nil {
		return o.Snapshot(), err
	}
	if !session.Role.CanApprove() {
		return o.Snapshot(), services.Wrap(services.ErrValidation, "orchestrator", op, "only admins can approve recipes", nil)
	}
	if err := o.approver.SetApproval(ctx, id, status); err != nil {
		return o.Snapshot(), err
	}
	title := id
	if r, err := o.findRecipe(ctx, op, id); err == nil {
		title = r.DisplayTitle()
	}
	key := i18n.MsgRecipeApproved
	if status == recipe.StatusRejected {
		key = i18n.MsgRecipeRejected
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.approvalMessage = o.printer.Sprintf(key, title)
	return o.state.snapshot(), nil
}
