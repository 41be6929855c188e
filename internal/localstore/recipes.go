package localstore

import (
	"context"
	"slices"
	"strings"

	"recipebox/internal/logging"
	"recipebox/internal/recipe"
)

// RecipeMeta returns the cached recipe metadata, newest first.
func (s *Store) RecipeMeta(ctx context.Context) ([]recipe.Meta, error) {
	var metas []recipe.Meta
	if _, err := s.GetJSON(ctx, KeyRecipesMeta, &metas); err != nil {
		return nil, err
	}
	return metas, nil
}

// MirrorRecipes replaces the cached metadata with metas, keeping only the
// newest MaxCacheEntries. A failed write clears the key and retries once with
// half as many entries.
func (s *Store) MirrorRecipes(ctx context.Context, metas []recipe.Meta) error {
	bounded := s.boundMetas(metas)
	return s.putJSONWithRecovery(ctx, KeyRecipesMeta, bounded, func() any {
		return bounded[:len(bounded)/2]
	})
}

// UpsertRecipeMeta inserts or replaces one cached entry.
func (s *Store) UpsertRecipeMeta(ctx context.Context, meta recipe.Meta) error {
	metas, err := s.RecipeMeta(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range metas {
		if metas[i].ID == meta.ID {
			metas[i] = meta
			replaced = true
			break
		}
	}
	if !replaced {
		metas = append(metas, meta)
	}
	return s.MirrorRecipes(ctx, metas)
}

// RemoveRecipeMeta drops one cached entry.
func (s *Store) RemoveRecipeMeta(ctx context.Context, id string) error {
	metas, err := s.RecipeMeta(ctx)
	if err != nil {
		return err
	}
	filtered := slices.DeleteFunc(metas, func(m recipe.Meta) bool { return m.ID == id })
	return s.MirrorRecipes(ctx, filtered)
}

// ClearFolderAssignments moves every cached recipe in folderID to uncategorized.
func (s *Store) ClearFolderAssignments(ctx context.Context, folderID string) error {
	metas, err := s.RecipeMeta(ctx)
	if err != nil {
		return err
	}
	for i := range metas {
		if metas[i].FolderID == folderID {
			metas[i].FolderID = ""
		}
	}
	return s.MirrorRecipes(ctx, metas)
}

// boundMetas sorts newest first, drops duplicates and evicts the oldest
// entries beyond the configured bound.
func (s *Store) boundMetas(metas []recipe.Meta) []recipe.Meta {
	sorted := slices.Clone(metas)
	slices.SortStableFunc(sorted, func(a, b recipe.Meta) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	for _, meta := range sorted {
		id := strings.TrimSpace(meta.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, meta)
	}
	if len(out) > s.maxEntries {
		s.logger.Debug("evicting oldest cached recipes",
			logging.Int("kept", s.maxEntries),
			logging.Int("evicted", len(out)-s.maxEntries),
		)
		out = out[:s.maxEntries]
	}
	return out
}
