// Package backend talks to the external recipe REST API.
//
// Client covers recipes, approval, comments, users and the auth check. It
// attaches the cached session token as a bearer header and mirrors recipe
// metadata into the on-device store on a best-effort basis. Local implements
// the recipe subset over the on-device store alone for installs without a
// backend.
package backend
