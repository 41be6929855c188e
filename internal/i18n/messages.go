package i18n

// Message keys. Every key has an English and a German translation.
const (
	MsgAnalysisComplete    = "analysis.complete"
	MsgAnalysisFailed      = "analysis.failed"
	MsgAnalysisPlaceholder = "analysis.placeholder"
	MsgRescaled            = "servings.rescaled"
	MsgRescaleFailed       = "servings.rescale_failed"
	MsgInvalidServings     = "servings.invalid"
	MsgRecipeSaved         = "recipe.saved"
	MsgRecipeUpdated       = "recipe.updated"
	MsgRecipeDeleted       = "recipe.deleted"
	MsgSaveFailed          = "recipe.save_failed"
	MsgDeleteFailed        = "recipe.delete_failed"
	MsgFavoriteAdded       = "recipe.favorite_added"
	MsgFavoriteRemoved     = "recipe.favorite_removed"
	MsgMovedToFolder       = "recipe.moved"
	MsgRemovedFromFolder   = "recipe.unfiled"
	MsgLoadFailed          = "recipes.load_failed"
	MsgShowingCached       = "recipes.cached"
	MsgFolderCreated       = "folder.created"
	MsgFolderDeleted       = "folder.deleted"
	MsgImageAdded          = "image.added"
	MsgImageFailed         = "image.failed"
	MsgRecipeApproved      = "approval.approved"
	MsgRecipeRejected      = "approval.rejected"
	MsgNotificationTitle   = "notification.title"
	MsgTestNotification    = "notification.test"
)

var english = map[string]string{
	MsgAnalysisComplete:    "Recipe analyzed: %s",
	MsgAnalysisFailed:      "Analysis failed: %s",
	MsgAnalysisPlaceholder: "The recipe could not be analyzed: %s",
	MsgRescaled:            "Recipe adjusted to %d servings",
	MsgRescaleFailed:       "Servings could not be recalculated: %s",
	MsgInvalidServings:     "Servings must be between %d and %d",
	MsgRecipeSaved:         "Recipe saved: %s",
	MsgRecipeUpdated:       "Recipe updated: %s",
	MsgRecipeDeleted:       "Recipe deleted: %s",
	MsgSaveFailed:          "Recipe could not be saved: %s",
	MsgDeleteFailed:        "Recipe could not be deleted: %s",
	MsgFavoriteAdded:       "Added to favorites: %s",
	MsgFavoriteRemoved:     "Removed from favorites: %s",
	MsgMovedToFolder:       "Moved %s to %s",
	MsgRemovedFromFolder:   "Removed %s from its folder",
	MsgLoadFailed:          "Recipes could not be loaded: %s",
	MsgShowingCached:       "Showing %d cached recipes",
	MsgFolderCreated:       "Folder created: %s",
	MsgFolderDeleted:       "Folder deleted: %s",
	MsgImageAdded:          "Image added to %s",
	MsgImageFailed:         "Image could not be stored: %s",
	MsgRecipeApproved:      "Recipe approved: %s",
	MsgRecipeRejected:      "Recipe rejected: %s",
	MsgNotificationTitle:   "recipebox",
	MsgTestNotification:    "Notification system test",
}

var german = map[string]string{
	MsgAnalysisComplete:    "Rezept analysiert: %s",
	MsgAnalysisFailed:      "Analyse fehlgeschlagen: %s",
	MsgAnalysisPlaceholder: "Das Rezept konnte nicht analysiert werden: %s",
	MsgRescaled:            "Rezept auf %d Portionen angepasst",
	MsgRescaleFailed:       "Portionen konnten nicht umgerechnet werden: %s",
	MsgInvalidServings:     "Portionen müssen zwischen %d und %d liegen",
	MsgRecipeSaved:         "Rezept gespeichert: %s",
	MsgRecipeUpdated:       "Rezept aktualisiert: %s",
	MsgRecipeDeleted:       "Rezept gelöscht: %s",
	MsgSaveFailed:          "Rezept konnte nicht gespeichert werden: %s",
	MsgDeleteFailed:        "Rezept konnte nicht gelöscht werden: %s",
	MsgFavoriteAdded:       "Zu Favoriten hinzugefügt: %s",
	MsgFavoriteRemoved:     "Aus Favoriten entfernt: %s",
	MsgMovedToFolder:       "%s nach %s verschoben",
	MsgRemovedFromFolder:   "%s aus dem Ordner entfernt",
	MsgLoadFailed:          "Rezepte konnten nicht geladen werden: %s",
	MsgShowingCached:       "%d zwischengespeicherte Rezepte werden angezeigt",
	MsgFolderCreated:       "Ordner erstellt: %s",
	MsgFolderDeleted:       "Ordner gelöscht: %s",
	MsgImageAdded:          "Bild zu %s hinzugefügt",
	MsgImageFailed:         "Bild konnte nicht gespeichert werden: %s",
	MsgRecipeApproved:      "Rezept freigegeben: %s",
	MsgRecipeRejected:      "Rezept abgelehnt: %s",
	MsgNotificationTitle:   "recipebox",
	MsgTestNotification:    "Test des Benachrichtigungssystems",
}
