// Package retry provides retry logic with configurable backoff for transient
// browser-session failures such as navigation and login.
//
// Per-item extraction is never retried: a failed item becomes a placeholder
// record and the batch moves on.
package retry
