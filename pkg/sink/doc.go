// Package sink writes harvested records to a CSV file.
//
// The file is created once with a header row; committed batches are appended
// and flushed to disk before the caller marks them processed. A run resumed
// from a checkpoint reopens the same file in append mode without rewriting
// the header.
package sink
