// Package localstore is the on-device key/value store: a single SQLite table
// of string keys and JSON values standing in for browser local storage.
//
// It holds the bounded recipe metadata mirror (recipes.meta), the folder list
// (folders), per-recipe auxiliary images (recipe.images.<id>), the session
// markers (session.user, session.role, session.token) and the servings
// preference (prefs.servings). Oversized writes and full-disk failures carry
// services.ErrQuota; collection writes clear the key and retry once with a
// smaller payload before giving up.
package localstore
