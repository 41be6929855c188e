package recipe

import (
	"strings"
	"time"
)

// Status is the approval state of a recipe. The backend enforces transitions.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus normalizes a status string; unknown values map to pending.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Record is a stored recipe.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Analysis  string    `json:"analysis"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Favorite  bool      `json:"favorite"`
	FolderID  string    `json:"folder_id,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Servings  int       `json:"servings,omitempty"`
}

// EffectiveTitle returns the stored title, or one derived from the text.
func (r Record) EffectiveTitle() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	return DeriveTitle(r.Analysis)
}

// DisplayTitle is EffectiveTitle truncated for rendering.
func (r Record) DisplayTitle() string {
	return DisplayTitle(r.EffectiveTitle())
}

// Uncategorized reports whether the record sits outside every folder.
func (r Record) Uncategorized() bool {
	return strings.TrimSpace(r.FolderID) == ""
}

// Meta is the lightweight projection of a Record mirrored into the local
// cache. It never carries image payloads.
type Meta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Analysis  string    `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Favorite  bool      `json:"favorite"`
	FolderID  string    `json:"folder_id,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Servings  int       `json:"servings,omitempty"`
	// ImageURL is kept only when the image is a remote URL, never a data URI.
	ImageURL string `json:"image_url,omitempty"`
}

// MetaOf projects a record into its cacheable metadata.
func MetaOf(r Record) Meta {
	meta := Meta{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.EffectiveTitle(),
		Analysis:  r.Analysis,
		CreatedAt: r.CreatedAt,
		Favorite:  r.Favorite,
		FolderID:  r.FolderID,
		Status:    r.Status,
		Servings:  r.Servings,
	}
	if isRemoteURL(r.Image) {
		meta.ImageURL = r.Image
	}
	return meta
}

// Record converts cached metadata back into a record without image payload.
func (m Meta) Record() Record {
	return Record{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Analysis:  m.Analysis,
		Image:     m.ImageURL,
		CreatedAt: m.CreatedAt,
		Favorite:  m.Favorite,
		FolderID:  m.FolderID,
		Status:    m.Status,
		Servings:  m.Servings,
	}
}

func isRemoteURL(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}

// Folder groups recipes. Recipes reference folders through Record.FolderID.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a note attached to a recipe by a user.
type Comment struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account known to the backend.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	Approved bool   `json:"approved"`
}
