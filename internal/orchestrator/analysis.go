package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"recipebox/internal/i18n"
	"recipebox/internal/logging"
	"recipebox/internal/notifications"
	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/analysis"
	"recipebox/internal/services/backend"
)

// StartAnalysis analyzes imageDataURI for the requested servings and loads
// the result into the active slot. servings 0 uses the cached preference, or 2.
//
// On success both servings counters become servings, the title is derived from
// the text and the recipe is persisted in the background. The view switches to
// analyze only when the analysis was started from the library. On failure the
// slot is replaced by an unsaved localized error placeholder, which cannot be
// rescaled, and a toast is raised; the returned error describes the failure.
// Loading always clears.
func (o *Orchestrator) StartAnalysis(ctx context.Context, imageDataURI string, servings int) (Snapshot, error) {
	const op = "start analysis"
	if servings == 0 {
		servings = o.preferredServings(ctx)
	}
	if err := recipe.Validate(op, recipe.AnalyzeInput{Image: strings.TrimSpace(imageDataURI), Servings: servings}); err != nil {
		return o.Snapshot(), err
	}
	if !strings.HasPrefix(strings.TrimSpace(imageDataURI), "data:") {
		return o.Snapshot(), services.Wrap(services.ErrValidation, "orchestrator", op, "image must be a data URI", nil)
	}
	if o.analyzer == nil {
		return o.Snapshot(), services.Wrap(services.ErrConfiguration, "orchestrator", op, "analysis client unavailable", nil)
	}

	correlationID := uuid.NewString()
	if id, ok := services.RequestIDFromContext(ctx); ok {
		correlationID = id
	} else {
		ctx = services.WithRequestID(ctx, correlationID)
	}
	ctx = services.WithOperation(ctx, "analyze")

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return o.Snapshot(), services.Wrap(services.ErrConfiguration, "orchestrator", op, "orchestrator closed", nil)
	}
	launchedFrom := o.state.view
	o.state.invalidate()
	version := o.state.version
	o.state.loading = true
	o.state.progress = 0
	o.mu.Unlock()

	logger := o.logger.With(logging.String(logging.FieldCorrelationID, correlationID))
	logger.Info("analysis started",
		logging.Int("servings", servings),
		logging.String(logging.FieldView, string(launchedFrom)),
	)

	result := o.analyzer.AnalyzeImage(ctx, imageDataURI, servings, o.progressReporter(version))

	o.mu.Lock()
	if o.state.version != version {
		o.mu.Unlock()
		logger.Info("analysis result discarded", logging.String("reason", "superseded"))
		return o.Snapshot(), services.Wrap(services.ErrTransient, "orchestrator", op, "analysis superseded", nil)
	}
	o.state.loading = false
	o.state.progress = 1

	if !result.Success {
		reason := strings.TrimSpace(result.Error)
		o.state.replaceSlot(Slot{
			Image:    imageDataURI,
			Analysis: o.printer.Sprintf(i18n.MsgAnalysisPlaceholder, reason),
			Servings: recipe.Uniform(servings),
		})
		o.state.placeholder = true
		snap := o.state.snapshot()
		o.mu.Unlock()

		cause := result.Cause()
		if cause == nil {
			cause = services.Wrap(services.ErrExternal, "orchestrator", op, reason, nil)
		}
		logging.WarnWithContext(logger, "analysis failed", "analysis_failed",
			logging.Error(cause),
			logging.String(logging.FieldErrorHint, "retry the upload or check analysis settings"),
		)
		o.notify(ctx, notifications.EventAnalysisFailed, notifications.Payload{"error": reason})
		return snap, cause
	}

	text := strings.TrimSpace(result.Analysis)
	o.state.replaceSlot(Slot{
		Image:    imageDataURI,
		Analysis: text,
		Title:    recipe.DeriveTitle(text),
		Servings: recipe.Uniform(servings),
	})
	slotVersion := o.state.version
	if launchedFrom == recipe.ViewLibrary {
		o.transitionLocked(recipe.ViewAnalyze, true)
	}
	snap := o.state.snapshot()
	o.mu.Unlock()

	logger.Info("analysis completed",
		logging.String("title", snap.Slot.Title),
		logging.Int("text_bytes", len(text)),
	)
	o.notify(ctx, notifications.EventAnalysisCompleted, notifications.Payload{"title": snap.DisplayTitle})
	o.rememberServings(ctx, servings)
	o.persistNew(ctx, slotVersion, snap.Slot)
	return snap, nil
}

// progressReporter returns a callback that advances progress monotonically up
// to the ceiling, and does nothing once version is stale.
func (o *Orchestrator) progressReporter(version uint64) analysis.ProgressReporter {
	return func(fraction float64) {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.state.version != version || !o.state.loading {
			return
		}
		fraction = min(fraction, progressCeiling)
		if fraction > o.state.progress {
			o.state.progress = fraction
			o.logger.Debug("analysis progress", logging.Progress(fraction))
		}
	}
}

// persistNew stores a freshly analyzed recipe in the background. The slot
// adopts the new id only if it still holds the same recipe.
func (o *Orchestrator) persistNew(ctx context.Context, version uint64, slot Slot) {
	if o.persistence == nil {
		return
	}
	userID := o.sessionUser(ctx)
	started := o.goBackground(func(bg context.Context) {
		bg = detach(ctx, bg)
		record := recipe.Record{
			UserID:    userID,
			Title:     slot.Title,
			Analysis:  slot.Analysis,
			Image:     slot.Image,
			CreatedAt: o.now().UTC(),
			Status:    recipe.StatusPending,
			Servings:  slot.Servings.Original,
		}
		if o.images != nil && strings.HasPrefix(slot.Image, "data:") {
			link, err := o.images.Upload(bg, "", slot.Image)
			if err != nil {
				logging.WarnWithContext(o.logger, "image upload failed; storing inline image", "image_upload_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "record carries the data URI"),
				)
			} else {
				record.Image = link
			}
		}
		created, err := o.persistence.CreateRecipe(bg, record)
		if err != nil {
			logging.WarnWithContext(o.logger, "recipe persistence failed", "persist_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "save the recipe again from the analyze view"),
			)
			o.notify(bg, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
			return
		}
		o.mu.Lock()
		if o.state.version == version && o.state.slot.RecipeID == "" {
			o.state.slot.RecipeID = created.ID
			o.state.slot.UserID = created.UserID
			o.state.slot.CreatedAt = created.CreatedAt
			if created.Image != "" {
				o.state.slot.Image = created.Image
			}
		}
		o.mu.Unlock()
		o.logger.Info("recipe persisted", logging.RecipeID(created.ID))
		o.notify(bg, notifications.EventRecipeSaved, notifications.Payload{"title": recipe.DisplayTitle(created.EffectiveTitle())})
	})
	if !started {
		o.logger.Debug("persistence skipped; orchestrator closed")
	}
}

// RequestServingsRescale recalculates the active recipe for n servings.
//
// It is a no-op when n equals the original count or no analysis is loaded.
// Out of range values are rejected with a toast. On success the text is
// replaced and both counters become n, so later rescales are relative to the
// last applied count. On failure the text and counters are unchanged.
func (o *Orchestrator) RequestServingsRescale(ctx context.Context, n int) (Snapshot, error) {
	const op = "rescale servings"

	o.mu.Lock()
	original := o.state.slot.Servings.Original
	text := o.state.slot.Analysis
	loaded := strings.TrimSpace(text) != "" && !o.state.loading && !o.state.placeholder
	if n == original || !loaded {
		snap := o.state.snapshot()
		o.mu.Unlock()
		return snap, nil
	}
	o.mu.Unlock()

	if err := recipe.Validate(op, recipe.RescaleInput{Servings: n}); err != nil {
		o.notify(ctx, notifications.EventInvalidServings, notifications.Payload{"min": recipe.MinServings, "max": recipe.MaxServings})
		return o.Snapshot(), err
	}
	if o.analyzer == nil {
		return o.Snapshot(), services.Wrap(services.ErrConfiguration, "orchestrator", op, "analysis client unavailable", nil)
	}

	o.mu.Lock()
	version := o.state.version
	recipeID := o.state.slot.RecipeID
	previous := o.state.slot.Servings.Current
	o.state.rescaling = true
	o.state.slot.Servings.Current = n
	o.mu.Unlock()

	ctx = services.WithOperation(services.WithRecipeID(ctx, recipeID), "rescale")
	result := o.analyzer.Rescale(ctx, text, original, n)

	o.mu.Lock()
	if o.state.version != version {
		o.mu.Unlock()
		return o.Snapshot(), services.Wrap(services.ErrTransient, "orchestrator", op, "recipe changed during rescale", nil)
	}
	o.state.rescaling = false
	if !result.Success {
		o.state.slot.Servings.Current = previous
		snap := o.state.snapshot()
		o.mu.Unlock()

		reason := strings.TrimSpace(result.Error)
		cause := result.Cause()
		if cause == nil {
			cause = services.Wrap(services.ErrExternal, "orchestrator", op, reason, nil)
		}
		logging.WarnWithContext(o.logger, "rescale failed", "rescale_failed",
			logging.Error(cause),
			logging.RecipeID(recipeID),
			logging.Int("from", original),
			logging.Int("to", n),
		)
		o.notify(ctx, notifications.EventRescaleFailed, notifications.Payload{"error": reason})
		return snap, cause
	}
	newText := strings.TrimSpace(result.Analysis)
	o.state.slot.Analysis = newText
	o.state.slot.Servings = recipe.Uniform(n)
	if derived := recipe.DeriveTitle(newText); derived != "" && o.state.slot.Title == "" {
		o.state.slot.Title = derived
	}
	snap := o.state.snapshot()
	o.mu.Unlock()

	o.logger.Info("recipe rescaled",
		logging.RecipeID(recipeID),
		logging.Int("from", original),
		logging.Int("to", n),
	)
	o.notify(ctx, notifications.EventRescaled, notifications.Payload{"servings": n})
	o.rememberServings(ctx, n)
	if recipeID != "" {
		o.persistRescale(ctx, recipeID, newText, n)
	}
	return snap, nil
}

func (o *Orchestrator) persistRescale(ctx context.Context, recipeID, text string, servings int) {
	if o.persistence == nil {
		return
	}
	o.goBackground(func(bg context.Context) {
		bg = detach(ctx, bg)
		patch := backend.RecipePatch{Analysis: &text, Servings: &servings}
		if _, err := o.persistence.UpdateRecipe(bg, recipeID, patch); err != nil {
			logging.WarnWithContext(o.logger, "rescaled text not persisted", "persist_failed",
				logging.Error(err),
				logging.RecipeID(recipeID),
			)
			o.notify(bg, notifications.EventPersistFailed, notifications.Payload{"error": services.UserMessage(err)})
		}
	})
}

func (o *Orchestrator) preferredServings(ctx context.Context) int {
	if o.store == nil {
		return recipe.DefaultServings
	}
	n, ok, err := o.store.ServingsPreference(ctx)
	if err != nil || !ok {
		return recipe.DefaultServings
	}
	return n
}

func (o *Orchestrator) rememberServings(ctx context.Context, n int) {
	if o.store == nil {
		return
	}
	if err := o.store.SetServingsPreference(ctx, n); err != nil {
		o.logger.Debug("servings preference not cached", logging.Error(err))
	}
}

func (o *Orchestrator) sessionUser(ctx context.Context) string {
	if o.store == nil {
		return ""
	}
	session, err := o.store.Session(ctx)
	if err != nil {
		return ""
	}
	return session.UserID
}
