// Package recipe holds the domain model shared by the orchestrator, the
// backend client and the local store: records and their cacheable metadata,
// folders, comments, users, roles, views and the servings pair.
//
// It also owns the text rules that operate on recipe bodies: title derivation,
// display truncation and servings extraction, plus struct validation of user
// input through go-playground/validator.
package recipe
