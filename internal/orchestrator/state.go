package orchestrator

import (
	"slices"
	"strings"
	"time"

	"recipebox/internal/recipe"
)

// historyLimit bounds the back-navigation stack.
const historyLimit = 1

// progressCeiling caps reported progress until the analysis completes.
const progressCeiling = 0.9

// Slot is the recipe currently displayed or edited.
type Slot struct {
	RecipeID  string          `json:"recipe_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Image     string          `json:"image,omitempty"`
	Analysis  string          `json:"analysis"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
	Servings  recipe.Servings `json:"servings"`
}

// Snapshot is an immutable copy of the orchestrator state for rendering.
type Snapshot struct {
	View            recipe.View   `json:"view"`
	History         []recipe.View `json:"history"`
	Launcher        recipe.View   `json:"launcher"`
	Slot            Slot          `json:"slot"`
	DisplayTitle    string        `json:"display_title"`
	AnalyzeReady    bool          `json:"analyze_ready"`
	Loading         bool          `json:"loading"`
	Rescaling       bool          `json:"rescaling"`
	Progress        float64       `json:"progress"`
	ApprovalMessage string        `json:"approval_message,omitempty"`
	Persisting      int           `json:"persisting"`
}

type state struct {
	view            recipe.View
	history         []recipe.View
	launcher        recipe.View
	slot            Slot
	loading         bool
	rescaling       bool
	progress        float64
	approvalMessage string
	persisting      int
	// placeholder marks a slot holding an analysis error message rather
	// than recipe text.
	placeholder bool
	// version changes whenever the slot is replaced; in-flight work compares
	// it before writing back.
	version uint64
}

func newState() state {
	return state{
		view:     recipe.ViewHome,
		launcher: recipe.ViewHome,
		slot:     Slot{Servings: recipe.DefaultServingsPair()},
	}
}

func (s *state) snapshot() Snapshot {
	return Snapshot{
		View:            s.view,
		History:         slices.Clone(s.history),
		Launcher:        s.launcher,
		Slot:            s.slot,
		DisplayTitle:    recipe.DisplayTitle(s.slot.Title),
		AnalyzeReady:    strings.TrimSpace(s.slot.Analysis) != "",
		Loading:         s.loading,
		Rescaling:       s.rescaling,
		Progress:        s.progress,
		ApprovalMessage: s.approvalMessage,
		Persisting:      s.persisting,
	}
}

// replaceSlot installs a new active recipe and invalidates in-flight work
// tied to the previous one.
func (s *state) replaceSlot(slot Slot) {
	s.slot = slot
	s.placeholder = false
	s.invalidate()
}

// invalidate bumps the version and drops any optimistic rescale so the
// servings pair agrees again.
func (s *state) invalidate() {
	s.version++
	s.rescaling = false
	s.slot.Servings.Current = s.slot.Servings.Original
}
