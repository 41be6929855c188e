package notifications

import (
	"fmt"

	"recipebox/internal/i18n"
)

// Event identifies the kind of toast being raised.
type Event string

const (
	EventAnalysisCompleted Event = "analysis_completed"
	EventAnalysisFailed    Event = "analysis_failed"
	EventRescaled          Event = "rescaled"
	EventRescaleFailed     Event = "rescale_failed"
	EventInvalidServings   Event = "invalid_servings"
	EventRecipeSaved       Event = "recipe_saved"
	EventRecipeUpdated     Event = "recipe_updated"
	EventRecipeDeleted     Event = "recipe_deleted"
	EventPersistFailed     Event = "persist_failed"
	EventDeleteFailed      Event = "delete_failed"
	EventFavoriteChanged   Event = "favorite_changed"
	EventRecipeMoved       Event = "recipe_moved"
	EventLoadFailed        Event = "load_failed"
	EventShowingCached     Event = "showing_cached"
	EventFolderCreated     Event = "folder_created"
	EventFolderDeleted     Event = "folder_deleted"
	EventImageAdded        Event = "image_added"
	EventImageFailed       Event = "image_failed"
	EventTest              Event = "test"
)

// Level is the severity shown with a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Payload carries event specific values.
type Payload map[string]any

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) number(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) flag(key string) bool {
	if p == nil {
		return false
	}
	v, _ := p[key].(bool)
	return v
}

// render resolves the localized toast text for an event.
func render(printer *i18n.Printer, event Event, payload Payload) (Level, string) {
	switch event {
	case EventAnalysisCompleted:
		return LevelSuccess, printer.Sprintf(i18n.MsgAnalysisComplete, payload.text("title"))
	case EventAnalysisFailed:
		return LevelError, printer.Sprintf(i18n.MsgAnalysisFailed, payload.text("error"))
	case EventRescaled:
		return LevelSuccess, printer.Sprintf(i18n.MsgRescaled, payload.number("servings"))
	case EventRescaleFailed:
		return LevelError, printer.Sprintf(i18n.MsgRescaleFailed, payload.text("error"))
	case EventInvalidServings:
		return LevelError, printer.Sprintf(i18n.MsgInvalidServings, payload.number("min"), payload.number("max"))
	case EventRecipeSaved:
		return LevelSuccess, printer.Sprintf(i18n.MsgRecipeSaved, payload.text("title"))
	case EventRecipeUpdated:
		return LevelSuccess, printer.Sprintf(i18n.MsgRecipeUpdated, payload.text("title"))
	case EventRecipeDeleted:
		return LevelSuccess, printer.Sprintf(i18n.MsgRecipeDeleted, payload.text("title"))
	case EventPersistFailed:
		return LevelError, printer.Sprintf(i18n.MsgSaveFailed, payload.text("error"))
	case EventDeleteFailed:
		return LevelError, printer.Sprintf(i18n.MsgDeleteFailed, payload.text("error"))
	case EventFavoriteChanged:
		if payload.flag("favorite") {
			return LevelSuccess, printer.Sprintf(i18n.MsgFavoriteAdded, payload.text("title"))
		}
		return LevelInfo, printer.Sprintf(i18n.MsgFavoriteRemoved, payload.text("title"))
	case EventRecipeMoved:
		if folder := payload.text("folder"); folder != "" {
			return LevelSuccess, printer.Sprintf(i18n.MsgMovedToFolder, payload.text("title"), folder)
		}
		return LevelInfo, printer.Sprintf(i18n.MsgRemovedFromFolder, payload.text("title"))
	case EventLoadFailed:
		return LevelError, printer.Sprintf(i18n.MsgLoadFailed, payload.text("error"))
	case EventShowingCached:
		return LevelInfo, printer.Sprintf(i18n.MsgShowingCached, payload.number("count"))
	case EventFolderCreated:
		return LevelSuccess, printer.Sprintf(i18n.MsgFolderCreated, payload.text("name"))
	case EventFolderDeleted:
		return LevelInfo, printer.Sprintf(i18n.MsgFolderDeleted, payload.text("name"))
	case EventImageAdded:
		return LevelSuccess, printer.Sprintf(i18n.MsgImageAdded, payload.text("title"))
	case EventImageFailed:
		return LevelError, printer.Sprintf(i18n.MsgImageFailed, payload.text("error"))
	case EventTest:
		return LevelInfo, printer.Sprintf(i18n.MsgTestNotification)
	default:
		return LevelInfo, string(event)
	}
}

// pushTags lists the events forwarded to ntfy and their tags.
var pushTags = map[Event][]string{
	EventAnalysisCompleted: {"recipebox", "analysis", "completed"},
	EventAnalysisFailed:    {"recipebox", "analysis", "error"},
	EventRecipeSaved:       {"recipebox", "recipe", "saved"},
	EventPersistFailed:     {"recipebox", "recipe", "error"},
	EventTest:              {"recipebox", "test"},
}
