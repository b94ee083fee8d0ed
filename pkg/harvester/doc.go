// Package harvester orchestrates incremental collection from an
// infinitely-scrolling listing.
//
// Each iteration probes the page for newly visible items, deduplicates them
// against the checkpoint's fingerprint set, extracts the new ones into
// records, and commits the batch: a sink append followed by the checkpoint
// update, treated as one step. A record is never marked processed unless its
// append succeeded, so an interrupted or failed commit costs re-discovery,
// never silent loss.
//
// The loop is single-threaded and cooperative. Cancellation takes effect
// between iterations; the shutdown coordinator's synchronous save covers
// interruption mid-sleep.
package harvester
