package localstore

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

// Folders returns the cached folder list.
func (s *Store) Folders(ctx context.Context) ([]recipe.Folder, error) {
	var folders []recipe.Folder
	if _, err := s.GetJSON(ctx, KeyFolders, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// SaveFolders replaces the folder list.
func (s *Store) SaveFolders(ctx context.Context, folders []recipe.Folder) error {
	return s.putJSONWithRecovery(ctx, KeyFolders, folders, nil)
}

// AuxImages returns the auxiliary images cached for a recipe.
func (s *Store) AuxImages(ctx context.Context, recipeID string) ([]string, error) {
	var images []string
	if _, err := s.GetJSON(ctx, AuxImagesKey(recipeID), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// AddAuxImage appends an image to a recipe's auxiliary list, evicting the
// oldest image beyond the per-recipe bound. When the write fails the oldest
// half is dropped and the write retried once.
func (s *Store) AddAuxImage(ctx context.Context, recipeID, image string) ([]string, error) {
	if strings.TrimSpace(recipeID) == "" {
		return nil, services.Wrap(services.ErrValidation, "localstore", "add image", "recipe id required", nil)
	}
	images, err := s.AuxImages(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	images = append(images, image)
	if len(images) > maxAuxImagesPerItem {
		images = images[len(images)-maxAuxImagesPerItem:]
	}
	final := images
	err = s.putJSONWithRecovery(ctx, AuxImagesKey(recipeID), images, func() any {
		final = images[len(images)/2:]
		return final
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(final), nil
}

// DeleteAuxImages removes every auxiliary image cached for a recipe.
func (s *Store) DeleteAuxImages(ctx context.Context, recipeID string) error {
	return s.Delete(ctx, AuxImagesKey(recipeID))
}

// Session is the cached identity of the local user.
type Session struct {
	UserID string      `json:"user_id"`
	Role   recipe.Role `json:"role"`
	Token  string      `json:"-"`
}

// Session returns the cached session markers. The role marker wins over the
// token's claims; without either the user is a guest.
func (s *Store) Session(ctx context.Context) (Session, error) {
	var session Session
	user, _, err := s.Get(ctx, KeySessionUser)
	if err != nil {
		return session, err
	}
	roleMarker, _, err := s.Get(ctx, KeySessionRole)
	if err != nil {
		return session, err
	}
	token, _, err := s.Get(ctx, KeySessionToken)
	if err != nil {
		return session, err
	}
	session.UserID = user
	session.Token = token
	session.Role = recipe.RoleGuest
	if tokenUser, tokenRole, ok := recipe.SessionFromToken(token); ok {
		session.Role = tokenRole
		if session.UserID == "" {
			session.UserID = tokenUser
		}
	}
	if strings.TrimSpace(roleMarker) != "" {
		session.Role = recipe.ParseRole(roleMarker)
	}
	return session, nil
}

// SaveSession stores the session markers; empty fields are removed.
func (s *Store) SaveSession(ctx context.Context, session Session) error {
	pairs := []struct{ key, value string }{
		{KeySessionUser, session.UserID},
		{KeySessionRole, string(session.Role)},
		{KeySessionToken, session.Token},
	}
	for _, pair := range pairs {
		var err error
		if strings.TrimSpace(pair.value) == "" {
			err = s.Delete(ctx, pair.key)
		} else {
			err = s.Put(ctx, pair.key, pair.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ServingsPreference returns the cached servings preference.
func (s *Store) ServingsPreference(ctx context.Context) (int, bool, error) {
	raw, ok, err := s.Get(ctx, KeyServingsPref)
	if err != nil || !ok {
		return 0, false, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil || !recipe.ValidServings(n) {
		return 0, false, nil
	}
	return n, true, nil
}

// SetServingsPreference caches the last requested servings count.
func (s *Store) SetServingsPreference(ctx context.Context, n int) error {
	if !recipe.ValidServings(n) {
		return services.Wrap(services.ErrValidation, "localstore", "servings preference",
			"servings must be between 1 and 100", nil)
	}
	return s.Put(ctx, KeyServingsPref, strconv.Itoa(n))
}
