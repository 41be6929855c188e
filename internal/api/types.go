package api

import (
	"time"

	"recipebox/internal/notifications"
	"recipebox/internal/orchestrator"
	"recipebox/internal/recipe"
)

// StateResponse wraps an orchestrator snapshot.
type StateResponse struct {
	State orchestrator.Snapshot `json:"state"`
	Error string                `json:"error,omitempty"`
}

// RecipeListResponse is the library listing.
type RecipeListResponse struct {
	Recipes []recipe.Record `json:"recipes"`
	Cached  bool            `json:"cached"`
}

// RecipeResponse wraps a single record.
type RecipeResponse struct {
	Recipe recipe.Record `json:"recipe"`
}

// SimilarListResponse ranks recipes resembling another one.
type SimilarListResponse struct {
	Similar []orchestrator.SimilarRecipe `json:"similar"`
}

// FolderListResponse lists folders.
type FolderListResponse struct {
	Folders []recipe.Folder `json:"folders"`
}

// ImageListResponse lists the auxiliary images of a recipe.
type ImageListResponse struct {
	Images []string `json:"images"`
}

// NotificationsResponse lists toasts newer than the requested cursor.
type NotificationsResponse struct {
	Notifications []notifications.Toast `json:"notifications"`
	Next          uint64                `json:"next"`
}

// CommentListResponse lists comments on a recipe.
type CommentListResponse struct {
	Comments []recipe.Comment `json:"comments"`
}

// UserListResponse lists accounts.
type UserListResponse struct {
	Users []recipe.User `json:"users"`
}

// LogEvent is the wire form of a streamed log record.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	RecipeID      string            `json:"recipe_id,omitempty"`
	Operation     string            `json:"operation,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is a page of log events plus the cursor for the next call.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

type viewRequest struct {
	View string `json:"view"`
}

type analyzeRequest struct {
	Image    string `json:"image"`
	Servings int    `json:"servings"`
}

type servingsRequest struct {
	Servings int `json:"servings"`
}

type editRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type folderMoveRequest struct {
	FolderID string `json:"folder_id"`
}

type imageRequest struct {
	Image string `json:"image"`
}

type approvalRequest struct {
	Status string `json:"status"`
}

type commentRequest struct {
	Body string `json:"body"`
}
