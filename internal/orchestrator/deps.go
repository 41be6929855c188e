package orchestrator

import (
	"context"

	"recipebox/internal/localstore"
	"recipebox/internal/recipe"
	"recipebox/internal/services/analysis"
	"recipebox/internal/services/backend"
)

// Analyzer extracts recipe text from images and rescales it.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageDataURI string, servings int, progress analysis.ProgressReporter) analysis.Result
	Rescale(ctx context.Context, text string, fromServings, toServings int) analysis.Result
}

// Persistence is the durable recipe store.
type Persistence interface {
	CreateRecipe(ctx context.Context, r recipe.Record) (recipe.Record, error)
	ListRecipes(ctx context.Context) ([]recipe.Record, error)
	GetRecipe(ctx context.Context, id string) (recipe.Record, error)
	UpdateRecipe(ctx context.Context, id string, patch backend.RecipePatch) (recipe.Record, error)
	DeleteRecipe(ctx context.Context, id string) error
}

// Approver records approval decisions.
type Approver interface {
	SetApproval(ctx context.Context, id string, status recipe.Status) error
}

// LocalStore is the on-device store.
type LocalStore interface {
	RecipeMeta(ctx context.Context) ([]recipe.Meta, error)
	ClearFolderAssignments(ctx context.Context, folderID string) error
	Folders(ctx context.Context) ([]recipe.Folder, error)
	SaveFolders(ctx context.Context, folders []recipe.Folder) error
	AuxImages(ctx context.Context, recipeID string) ([]string, error)
	AddAuxImage(ctx context.Context, recipeID, image string) ([]string, error)
	DeleteAuxImages(ctx context.Context, recipeID string) error
	Session(ctx context.Context) (localstore.Session, error)
	ServingsPreference(ctx context.Context) (int, bool, error)
	SetServingsPreference(ctx context.Context, n int) error
}

// ImageStore uploads analyzed photos so records carry a URL instead of the
// inline payload.
type ImageStore interface {
	Upload(ctx context.Context, recipeID, dataURI string) (string, error)
	Delete(ctx context.Context, link string) error
}
