package recipe

import (
	"fmt"
	"strings"
)

// View is one named screen of the application.
type View string

const (
	ViewHome          View = "home"
	ViewLibrary       View = "library"
	ViewAnalyze       View = "analyze"
	ViewArchive       View = "archive"
	ViewUsers         View = "users"
	ViewManualRecipes View = "manual-recipes"
)

// AllViews lists every view in menu order.
var AllViews = []View{ViewHome, ViewLibrary, ViewAnalyze, ViewArchive, ViewUsers, ViewManualRecipes}

// ParseView validates a view name.
func ParseView(value string) (View, error) {
	candidate := View(strings.ToLower(strings.TrimSpace(value)))
	for _, v := range AllViews {
		if v == candidate {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", value)
}
