package localstore

import "strings"

const (
	KeyRecipesMeta      = "recipes.meta"
	KeyFolders          = "folders"
	KeySessionUser      = "session.user"
	KeySessionRole      = "session.role"
	KeySessionToken     = "session.token"
	KeyServingsPref     = "prefs.servings"
	auxImagesKeyPrefix  = "recipe.images."
	maxAuxImagesPerItem = 12
)

// AuxImagesKey returns the key holding auxiliary images for a recipe.
func AuxImagesKey(recipeID string) string {
	return auxImagesKeyPrefix + strings.TrimSpace(recipeID)
}
