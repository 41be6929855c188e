// Package imagestore handles recipe photos: data URI parsing with content
// sniffing, and optional upload to an S3 compatible bucket so stored records
// carry a public URL instead of an inline payload.
package imagestore
