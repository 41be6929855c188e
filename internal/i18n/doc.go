// Package i18n holds the English and German message catalogs for toasts and
// error placeholders.
package i18n
