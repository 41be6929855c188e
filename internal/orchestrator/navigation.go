package orchestrator

import (
	"recipebox/internal/logging"
	"recipebox/internal/recipe"
)

// Back-navigation transition table:
//
//	from archive, users, manual-recipes  -> home, history cleared
//	from analyze                         -> launcher (library, archive or home), history reset to home
//	from anything else                   -> previous view; home when none or equal to current
//
// Leaving analyze by any route clears the approval banner.

// ChangeView moves to target, recording the prior view unless it equals target.
func (o *Orchestrator) ChangeView(target recipe.View) error {
	if _, err := recipe.ParseView(string(target)); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitionLocked(target, true)
	return nil
}

// GoBack moves to the destination given by the transition table and returns it.
func (o *Orchestrator) GoBack() recipe.View {
	o.mu.Lock()
	defer o.mu.Unlock()

	current := o.state.view
	var target recipe.View
	switch current {
	case recipe.ViewArchive, recipe.ViewUsers, recipe.ViewManualRecipes:
		target = recipe.ViewHome
		o.state.history = nil
	case recipe.ViewAnalyze:
		target = o.state.launcher
		if target == "" {
			target = recipe.ViewHome
		}
		o.state.history = []recipe.View{recipe.ViewHome}
	default:
		target = recipe.ViewHome
		if n := len(o.state.history); n > 0 {
			previous := o.state.history[n-1]
			o.state.history = o.state.history[:n-1]
			if previous != current {
				target = previous
			}
		}
	}
	o.transitionLocked(target, false)
	return target
}

// transitionLocked switches views. record pushes the prior view onto the
// bounded history.
func (o *Orchestrator) transitionLocked(target recipe.View, record bool) {
	current := o.state.view
	if current == target {
		return
	}
	if record {
		o.state.history = append(o.state.history, current)
		if overflow := len(o.state.history) - historyLimit; overflow > 0 {
			o.state.history = o.state.history[overflow:]
		}
	}
	if target == recipe.ViewAnalyze {
		switch current {
		case recipe.ViewLibrary, recipe.ViewArchive:
			o.state.launcher = current
		default:
			o.state.launcher = recipe.ViewHome
		}
	}
	if current == recipe.ViewAnalyze {
		o.state.approvalMessage = ""
	}
	o.state.view = target
	o.logger.Debug("view changed",
		logging.String("from", string(current)),
		logging.String(logging.FieldView, string(target)),
	)
}
