package harvester

import (
	"sync"

	"liscraper/pkg/checkpoint"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// session holds one run's mutable state: the in-memory checkpoint, the sink
// handle, and the store that persists progress. It replaces the loop-local
// variables an interrupt handler would otherwise have to capture; the
// shutdown coordinator flushes through it instead.
type session struct {
	mu     sync.Mutex
	cp     *checkpoint.Checkpoint
	mgr    *checkpoint.Manager
	sink   Sink
	logger logger.Logger
}

func newSession(cp *checkpoint.Checkpoint, mgr *checkpoint.Manager, sink Sink, log logger.Logger) *session {
	return &session{cp: cp, mgr: mgr, sink: sink, logger: log}
}

// isProcessed reports whether the fingerprint was already committed.
func (s *session) isProcessed(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.IsProcessed(fp)
}

// lastIndex returns the highest committed listing index.
func (s *session) lastIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.LastProfileIndex
}

// commit appends the batch to the sink, then marks its fingerprints
// processed, raises the index watermark, and saves the checkpoint. The sink
// append gates everything else: on append failure nothing is marked and the
// whole batch stays eligible for re-discovery. A checkpoint save failure is
// demoted to a diagnostic; the in-memory state stays authoritative.
func (s *session) commit(batch []models.TaggedRecord) error {
	if len(batch) == 0 {
		return nil
	}

	records := make([]models.Record, len(batch))
	maxIndex := -1
	for i, t := range batch {
		records[i] = t.Record
		if t.Index > maxIndex {
			maxIndex = t.Index
		}
	}

	if err := s.sink.Append(records); err != nil {
		return errs.Wrap(errs.ErrorTypeSinkIO, "batch append failed", err)
	}

	s.mu.Lock()
	for _, t := range batch {
		s.cp.MarkProcessed(t.Fingerprint)
	}
	s.cp.AdvanceIndex(maxIndex)
	s.mu.Unlock()

	if err := s.save(); err != nil {
		s.logger.WithError(err).Warn("Checkpoint save failed, continuing with in-memory state")
	}
	return nil
}

// save persists the current checkpoint. Safe to call from the shutdown
// coordinator's signal goroutine.
func (s *session) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mgr.Save(s.cp); err != nil {
		return errs.Wrap(errs.ErrorTypeCheckpointIO, "checkpoint save failed", err)
	}
	return nil
}

// clear deletes the checkpoint after a converged run.
func (s *session) clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mgr.Clear(); err != nil {
		return errs.Wrap(errs.ErrorTypeCheckpointIO, "checkpoint clear failed", err)
	}
	return nil
}

// processedCount returns the in-memory fingerprint set size.
func (s *session) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.ProcessedCount()
}
