package orchestrator

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/backend"
)

const defaultFolderColor = "#9e9e9e"

// Folders returns the folder list.
func (o *Orchestrator) Folders(ctx context.Context) ([]recipe.Folder, error) {
	if err := o.requireStore("list folders"); err != nil {
		return nil, err
	}
	return o.store.Folders(ctx)
}

// CreateFolder adds a folder.
func (o *Orchestrator) CreateFolder(ctx context.Context, input recipe.FolderInput) (recipe.Folder, error) {
	const op = "create folder"
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.TrimSpace(input.Color)
	if err := recipe.Validate(op, input); err != nil {
		return recipe.Folder{}, err
	}
	if err := o.requireStore(op); err != nil {
		return recipe.Folder{}, err
	}
	folders, err := o.store.Folders(ctx)
	if err != nil {
		return recipe.Folder{}, err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, input.Name) {
			return recipe.Folder{}, services.Wrap(services.ErrValidation, "orchestrator", op, "folder "+input.Name+" already exists", nil)
		}
	}
	color := input.Color
	if color == "" {
		color = defaultFolderColor
	}
	folder := recipe.Folder{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Color:     color,
		CreatedAt: o.now().UTC(),
	}
	if err := o.store.SaveFolders(ctx, append(folders, folder)); err != nil {
		return recipe.Folder{}, err
	}
	o.notify(ctx, notifications.EventFolderCreated, notifications.Payload{"name": folder.Name})
	return folder, nil
}

// DeleteFolder removes a folder; its recipes become uncategorized.
func (o *Orchestrator) DeleteFolder(ctx context.Context, id string) error {
	const op = "delete folder"
	if err := o.requireStore(op); err != nil {
		return err
	}
	folders, err := o.store.Folders(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(folders, func(f recipe.Folder) bool { return f.ID == id })
	if idx < 0 {
		return services.Wrap(services.ErrNotFound, "orchestrator", op, "folder "+id+" not found", nil)
	}
	removed := folders[idx]
	if err := o.store.SaveFolders(ctx, slices.Delete(folders, idx, idx+1)); err != nil {
		return err
	}
	if err := o.store.ClearFolderAssignments(ctx, id); err != nil {
		o.logger.Debug("cached folder assignments not cleared", logging.Error(err))
	}
	o.unfileRecipes(ctx, id)
	o.notify(ctx, notifications.EventFolderDeleted, notifications.Payload{"name": removed.Name})
	return nil
}

// unfileRecipes clears folderID from every stored recipe that references it.
func (o *Orchestrator) unfileRecipes(ctx context.Context, folderID string) {
	if o.persistence == nil {
		return
	}
	records, err := o.persistence.ListRecipes(ctx)
	if err != nil {
		logging.WarnWithContext(o.logger, "recipes not unfiled after folder delete", "folder_unfile_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "recipes keep a dangling folder id"),
		)
		return
	}
	empty := ""
	for _, r := range records {
		if r.FolderID != folderID {
			continue
		}
		if _, err := o.persistence.UpdateRecipe(ctx, r.ID, backend.RecipePatch{FolderID: &empty}); err != nil {
			o.logger.Warn("recipe not unfiled", logging.RecipeID(r.ID), logging.Error(err))
		}
	}
}

func (o *Orchestrator) folder(ctx context.Context, op, id string) (recipe.Folder, error) {
	if err := o.requireStore(op); err != nil {
		return recipe.Folder{}, err
	}
	folders, err := o.store.Folders(ctx)
	if err != nil {
		return recipe.Folder{}, err
	}
	for _, f := range folders {
		if f.ID == id {
			return f, nil
		}
	}
	return recipe.Folder{}, services.Wrap(services.ErrNotFound, "orchestrator", op, "folder "+id+" not found", nil)
}

// AuxImages returns the auxiliary images cached for a recipe.
func (o *Orchestrator) AuxImages(ctx context.Context, recipeID string) ([]string, error) {
	if err := o.requireStore("list images"); err != nil {
		return nil, err
	}
	return o.store.AuxImages(ctx, recipeID)
}

// AddAuxImage caches an extra photo for a recipe.
func (o *Orchestrator) AddAuxImage(ctx context.Context, recipeID, image string) ([]string, error) {
	const op = "add image"
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return nil, services.Wrap(services.ErrValidation, "orchestrator", op, "recipe id required", nil)
	}
	if err := recipe.Validate(op, recipe.AnalyzeInput{Image: strings.TrimSpace(image)}); err != nil {
		return nil, err
	}
	if err := o.requireStore(op); err != nil {
		return nil, err
	}
	images, err := o.store.AddAuxImage(ctx, recipeID, strings.TrimSpace(image))
	if err != nil {
		o.notify(ctx, notifications.EventImageFailed, notifications.Payload{"error": services.UserMessage(err)})
		return nil, err
	}
	title := recipeID
	if r, lookupErr := o.findRecipe(ctx, op, recipeID); lookupErr == nil {
		title = r.DisplayTitle()
	}
	o.notify(ctx, notifications.EventImageAdded, notifications.Payload{"title": title})
	return images, nil
}
