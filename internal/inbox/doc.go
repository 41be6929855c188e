// Package inbox watches a directory for recipe photos and feeds each new file
// into the analysis pipeline.
//
// Files are picked up after they stop changing for a short settle period,
// analyzed one at a time, then moved to processed/ or failed/ below the inbox
// so a restart does not analyze them twice.
package inbox
