// Package checkpoint provides durable load/save of collection progress.
//
// A checkpoint lets the harvester resume after interruptions such as crashes,
// signals, or manual stops. It tracks:
//   - The highest listing index seen so far (a resume hint, not a cursor)
//   - The CSV file the run is appending to
//   - The fingerprints of profiles already committed to the sink, bounded to
//     the most recent 1000 insertions (oldest evicted first)
//
// The backing file is a single human-inspectable JSON document, overwritten
// wholesale on every save via an atomic temp-file rename. A missing or
// unparseable file is never fatal: Load falls back to a fresh default so a
// corrupted checkpoint costs at most some duplicate work, never the run.
package checkpoint
